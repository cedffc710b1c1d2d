package locator_test

import (
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/loopfield/interview-engine/internal/ierr"
	"github.com/loopfield/interview-engine/internal/locator"
)

var _ = Describe("Parse", func() {
	DescribeTable("round-trips through String()",
		func(src string) {
			loc, err := locator.Parse(src)
			Expect(err).NotTo(HaveOccurred())
			Expect(loc.String()).To(Equal(src))

			again, err := locator.Parse(loc.String())
			Expect(err).NotTo(HaveOccurred())
			Expect(again.Equal(loc)).To(BeTrue())
		},
		Entry("bare name", "a"),
		Entry("property chain", "a.b"),
		Entry("bracketed index", `a["b c"]`),
		Entry("int index", "a[0]"),
		Entry("multi-digit int index", "a[42]"),
		Entry("param index", "person[attr]"),
		Entry("nested property and index", "a.b[0]"),
		Entry("hyphenated name", "a-b.c"),
	)

	DescribeTable("rejects invalid input",
		func(src string) {
			_, err := locator.Parse(src)
			Expect(err).To(HaveOccurred())
			var invalid *ierr.InvalidLocator
			Expect(err).To(BeAssignableToTypeOf(invalid))
		},
		Entry("leading zero", "a[01]"),
		Entry("unclosed string", `a["b`),
		Entry("leading hyphen", "-a"),
		Entry("trailing hyphen", "a-"),
		Entry("leading underscore", "_a"),
		Entry("leading digit", "0a"),
		Entry("stray trailing token", "a.b)"),
	)
})

var _ = Describe("Evaluate", func() {
	It("resolves nested paths", func() {
		loc, err := locator.Parse("person.name")
		Expect(err).NotTo(HaveOccurred())

		ctx := map[string]any{"person": map[string]any{"name": "Ada"}}
		val, err := loc.Evaluate(ctx)
		Expect(err).NotTo(HaveOccurred())
		Expect(val).To(Equal("Ada"))
	})

	It("reports the deepest undefined locator", func() {
		loc, err := locator.Parse("person.address.city")
		Expect(err).NotTo(HaveOccurred())

		ctx := map[string]any{"person": map[string]any{}}
		_, err = loc.Evaluate(ctx)
		var undef *ierr.Undefined
		Expect(err).To(BeAssignableToTypeOf(undef))
		Expect(err.(*ierr.Undefined).Loc.String()).To(Equal("person.address"))
	})

	It("raises TypeError, not Undefined, when the target isn't indexable", func() {
		loc, err := locator.Parse("person.name")
		Expect(err).NotTo(HaveOccurred())

		ctx := map[string]any{"person": "Ada"}
		_, err = loc.Evaluate(ctx)
		var typeErr *ierr.TypeError
		Expect(err).To(BeAssignableToTypeOf(typeErr))
	})

	It("resolves parametric indices via the inner locator", func() {
		loc, err := locator.Parse("person[attr]")
		Expect(err).NotTo(HaveOccurred())

		ctx := map[string]any{
			"person": map[string]any{"name": "Ada"},
			"attr":   "name",
		}
		val, err := loc.Evaluate(ctx)
		Expect(err).NotTo(HaveOccurred())
		Expect(val).To(Equal("Ada"))
	})
})

var _ = Describe("Set", func() {
	It("writes through an existing prefix", func() {
		loc, err := locator.Parse("person.name")
		Expect(err).NotTo(HaveOccurred())

		ctx := map[string]any{"person": map[string]any{}}
		Expect(loc.Set("Test Name", ctx)).To(Succeed())

		val, err := loc.Evaluate(ctx)
		Expect(err).NotTo(HaveOccurred())
		Expect(val).To(Equal("Test Name"))
	})

	It("creates a new top-level variable", func() {
		loc, err := locator.Parse("use_preferred_name")
		Expect(err).NotTo(HaveOccurred())

		ctx := map[string]any{}
		Expect(loc.Set(true, ctx)).To(Succeed())
		Expect(ctx["use_preferred_name"]).To(Equal(true))
	})

	It("refuses to set through an undefined prefix", func() {
		loc, err := locator.Parse("person.address.city")
		Expect(err).NotTo(HaveOccurred())

		ctx := map[string]any{"person": map[string]any{}}
		err = loc.Set("Springfield", ctx)
		Expect(err).To(HaveOccurred())
		var interviewErr *ierr.Interview
		Expect(err).To(BeAssignableToTypeOf(interviewErr))
	})

	It("never assigns through a literal", func() {
		lit := &locator.Literal{Value: "x"}
		Expect(lit.Writable()).To(BeFalse())
		err := lit.Set("y", map[string]any{})
		Expect(err).To(HaveOccurred())
	})
})

var _ = Describe("Compare", func() {
	It("treats structurally identical reduced locators as equal", func() {
		a, _ := locator.Parse("person[attr]")
		b, _ := locator.Parse(`person["name"]`)
		ctx := map[string]any{"attr": "name"}
		Expect(locator.Compare(a, b, ctx)).To(BeTrue())
	})

	It("returns false, not an error, when the inner index is undefined", func() {
		a, _ := locator.Parse("person[attr]")
		b, _ := locator.Parse(`person["name"]`)
		ctx := map[string]any{}
		Expect(locator.Compare(a, b, ctx)).To(BeFalse())
	})

	It("compares target before key on both sides", func() {
		a, _ := locator.Parse("a.b")
		b, _ := locator.Parse("c.b")
		Expect(locator.Compare(a, b, map[string]any{})).To(BeFalse())
	})
})
