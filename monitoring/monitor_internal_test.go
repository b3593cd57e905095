package monitoring

import (
	"net/http"
	"net/http/httptest"
	"reflect"

	"github.com/sarchlab/ringdma/sim"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

type sampleStruct struct {
	field1 int
	field2 string
	field3 *sampleStruct
	field4 []sampleStruct
}

type sampleComponent struct {
	*sim.ComponentBase

	buffer sim.Buffer
}

func (c *sampleComponent) Handle(_ sim.Event) error {
	return nil
}

func (c *sampleComponent) NotifyRecv(_ sim.Port) {}

func (c *sampleComponent) NotifyPortFree(_ sim.Port) {}

func (c *sampleComponent) Report() any {
	return map[string]int{"level": c.buffer.Size()}
}

func newSampleComponent() *sampleComponent {
	c := &sampleComponent{
		ComponentBase: sim.NewComponentBase("Comp"),
		buffer:        sim.NewBuffer("Comp.Buf", 10),
	}

	c.AddPort("Port1", sim.NewPort(c, 2, 2, "Comp.Port1"))

	return c
}

var _ = Describe("Monitor", func() {
	var (
		m *Monitor
	)

	BeforeEach(func() {
		m = NewMonitor()
	})

	It("should register components and internal buffers", func() {
		c := newSampleComponent()
		m.RegisterComponent(c)

		Expect(m.components).To(HaveLen(1))
		Expect(m.buffers).To(HaveLen(3))
	})

	It("should select the fullest buffers first", func() {
		c := newSampleComponent()
		m.RegisterComponent(c)
		c.buffer.Push(1)
		c.buffer.Push(2)

		all := m.sortAndSelectBuffers("level", 0, 0)
		Expect(all).To(HaveLen(3))
		Expect(all[0].Name()).To(Equal("Comp.Buf"))

		Expect(m.sortAndSelectBuffers("percent", 1, 0)).To(HaveLen(1))
		Expect(m.sortAndSelectBuffers("percent", 5, 2)).To(HaveLen(1))
		Expect(m.sortAndSelectBuffers("percent", 0, 10)).To(BeEmpty())
	})

	It("should report drained buffers by their peak", func() {
		c := newSampleComponent()
		m.RegisterComponent(c)
		c.buffer.Push(1)
		c.buffer.Push(2)
		c.buffer.Pop()
		c.buffer.Pop()

		rec := httptest.NewRecorder()
		m.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet,
			"/api/hangdetector/buffers?sort=peak&limit=1", nil))

		Expect(rec.Code).To(Equal(http.StatusOK))
		Expect(rec.Body.String()).To(MatchJSON(
			`[{"buffer":"Comp.Buf","level":0,"peak":2,"cap":10}]`))
	})

	It("should serve component reports", func() {
		c := newSampleComponent()
		m.RegisterComponent(c)
		c.buffer.Push(1)

		rec := httptest.NewRecorder()
		m.Handler().ServeHTTP(rec,
			httptest.NewRequest(http.MethodGet, "/api/report/Comp", nil))

		Expect(rec.Code).To(Equal(http.StatusOK))
		Expect(rec.Body.String()).To(MatchJSON(`{"level":1}`))
	})

	It("should list port traffic", func() {
		c := newSampleComponent()
		m.RegisterComponent(c)

		rec := httptest.NewRecorder()
		m.Handler().ServeHTTP(rec,
			httptest.NewRequest(http.MethodGet, "/api/ports/Comp", nil))

		Expect(rec.Code).To(Equal(http.StatusOK))
		Expect(rec.Body.String()).To(MatchJSON(`{"Comp.Port1":
			{"sent":0,"rejected":0,"delivered":0,"refused":0}}`))
	})

	It("should answer 404 for unknown components", func() {
		rec := httptest.NewRecorder()
		m.Handler().ServeHTTP(rec,
			httptest.NewRequest(http.MethodGet, "/api/report/Nope", nil))

		Expect(rec.Code).To(Equal(http.StatusNotFound))
	})

	It("should reject a bad buffer sort method", func() {
		rec := httptest.NewRecorder()
		m.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet,
			"/api/hangdetector/buffers?sort=abc", nil))

		Expect(rec.Code).To(Equal(http.StatusBadRequest))
	})

	It("should track progress bars", func() {
		bar := m.CreateProgressBar("packets", 10)
		bar.IncrementInProgress(3)
		bar.MoveInProgressToFinished(2)

		finished, total := bar.Snapshot()
		Expect(finished).To(Equal(uint64(2)))
		Expect(total).To(Equal(uint64(10)))
		Expect(m.progressBars).To(HaveLen(1))

		rec := httptest.NewRecorder()
		m.Handler().ServeHTTP(rec,
			httptest.NewRequest(http.MethodGet, "/api/progress", nil))
		Expect(rec.Body.String()).To(ContainSubstring(`"name":"packets"`))
		Expect(rec.Body.String()).To(ContainSubstring(`"in_progress":1`))

		m.CompleteProgressBar(bar)
		Expect(m.progressBars).To(BeEmpty())
	})

	It("should walk int fields", func() {
		s := &sampleStruct{
			field1: 1,
		}

		elem, err := m.walkFields(s, "field1")

		Expect(err).To(BeNil())
		Expect(elem.Kind()).To(Equal(reflect.Int))
		Expect(elem.Type().Name()).To(Equal("int"))
		Expect(elem.Int()).To(Equal(int64(1)))
	})

	It("should walk string fields", func() {
		s := &sampleStruct{
			field2: "abc",
		}

		elem, err := m.walkFields(s, "field2")

		Expect(err).To(BeNil())
		Expect(elem.Kind()).To(Equal(reflect.String))
		Expect(elem.Type().Name()).To(Equal("string"))
		Expect(elem.String()).To(Equal("abc"))
	})

	It("should walk struct", func() {
		s := &sampleStruct{
			field3: &sampleStruct{},
		}

		elem, err := m.walkFields(s, "field3")

		Expect(err).To(BeNil())

		Expect(elem.Kind()).To(Equal(reflect.Struct))
		Expect(elem.Type().Name()).To(Equal("sampleStruct"))
	})

	It("should walk recursively", func() {
		s := &sampleStruct{
			field3: &sampleStruct{
				field1: 1,
			},
		}

		elem, err := m.walkFields(s, "field3.field1")

		Expect(err).To(BeNil())
		Expect(elem.Kind()).To(Equal(reflect.Int))
		Expect(elem.Type().Name()).To(Equal("int"))
		Expect(elem.Int()).To(Equal(int64(1)))
	})

	It("should walk slice", func() {
		s := &sampleStruct{
			field4: []sampleStruct{{}, {}},
		}

		elem, err := m.walkFields(s, "field4")

		Expect(err).To(BeNil())
		Expect(elem.Kind()).To(Equal(reflect.Slice))
	})

	It("should walk slice recursively", func() {
		s := &sampleStruct{
			field4: []sampleStruct{{
				field4: []sampleStruct{
					{field1: 1},
				},
			}, {}},
		}

		elem, err := m.walkFields(s, "field4.0.field4.0.field1")

		Expect(err).To(BeNil())
		Expect(elem.Kind()).To(Equal(reflect.Int))
		Expect(elem.Type().Name()).To(Equal("int"))
		Expect(elem.Int()).To(Equal(int64(1)))
	})
})
