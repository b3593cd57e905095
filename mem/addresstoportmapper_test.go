package mem

import (
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"github.com/sarchlab/ringdma/sim"
)

var _ = Describe("SinglePortMapper", func() {
	It("should map every address to its port", func() {
		var mapper AddressToPortMapper = &SinglePortMapper{Port: "Mem.TopPort"}

		for _, addr := range []uint64{0, 0x1000, 4 * GB} {
			Expect(mapper.Find(addr)).To(Equal(sim.RemotePort("Mem.TopPort")))
		}
	})
})
