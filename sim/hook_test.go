package sim

import (
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

var _ = Describe("HookAt", func() {
	It("should only run at its position", func() {
		var items []interface{}
		buf := NewBuffer("Buf", 4)
		buf.AcceptHook(HookAt(HookPosBufPop, func(ctx HookCtx) {
			items = append(items, ctx.Item)
		}))

		buf.Push(1)
		buf.Push(2)
		buf.Pop()

		Expect(buf.NumHooks()).To(Equal(1))
		Expect(items).To(Equal([]interface{}{1}))
	})
})
