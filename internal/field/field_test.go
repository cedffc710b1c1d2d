package field_test

import (
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/loopfield/interview-engine/internal/field"
	"github.com/loopfield/interview-engine/internal/ierr"
	"github.com/loopfield/interview-engine/internal/locator"
)

func mustLoc(src string) locator.Locator {
	l, err := locator.Parse(src)
	Expect(err).NotTo(HaveOccurred())
	return l
}

var _ = Describe("Text", func() {
	It("trims and accepts a plain value", func() {
		f, err := field.NewText(mustLoc("name"), false, 0, 0, "", "", "", "")
		Expect(err).NotTo(HaveOccurred())

		v, err := f.Parse("  Ada  ")
		Expect(err).NotTo(HaveOccurred())
		Expect(v).To(Equal("Ada"))
	})

	It("converts empty input to nil and rejects it when required", func() {
		f, err := field.NewText(mustLoc("name"), false, 0, 0, "", "", "", "")
		Expect(err).NotTo(HaveOccurred())

		_, err = f.Parse("   ")
		var fe *ierr.FieldError
		Expect(err).To(BeAssignableToTypeOf(fe))
	})

	It("accepts nil when optional", func() {
		f, err := field.NewText(mustLoc("name"), true, 0, 0, "", "", "", "")
		Expect(err).NotTo(HaveOccurred())

		v, err := f.Parse(nil)
		Expect(err).NotTo(HaveOccurred())
		Expect(v).To(BeNil())
	})

	It("reports a required, blank, display-only (set=null) field without panicking", func() {
		f, err := field.NewText(nil, false, 0, 0, "", "", "", "")
		Expect(err).NotTo(HaveOccurred())

		_, err = f.Parse(nil)
		var fe *ierr.FieldError
		Expect(err).To(BeAssignableToTypeOf(fe))
		Expect(err.(*ierr.FieldError).Loc).To(Equal(""))
	})

	It("enforces a custom pattern", func() {
		f, err := field.NewText(mustLoc("code"), false, 0, 0, "^[A-Z]{3}$", "", "", "")
		Expect(err).NotTo(HaveOccurred())

		_, err = f.Parse("abc")
		Expect(err).To(HaveOccurred())

		v, err := f.Parse("ABC")
		Expect(err).NotTo(HaveOccurred())
		Expect(v).To(Equal("ABC"))
	})

	It("validates an email format", func() {
		f, err := field.NewText(mustLoc("email"), false, 0, 0, "", "email", "", "")
		Expect(err).NotTo(HaveOccurred())

		_, err = f.Parse("not-an-email")
		Expect(err).To(HaveOccurred())

		v, err := f.Parse("ada@example.com")
		Expect(err).NotTo(HaveOccurred())
		Expect(v).To(Equal("ada@example.com"))
	})
})

var _ = Describe("Number", func() {
	It("rejects a non-whole value for an integer field", func() {
		f := &field.Number{SetLoc: mustLoc("age"), Integer: true}
		_, err := f.Parse(3.5)
		Expect(err).To(HaveOccurred())
	})

	It("parses a whole float64 into an int", func() {
		f := &field.Number{SetLoc: mustLoc("age"), Integer: true}
		v, err := f.Parse(float64(42))
		Expect(err).NotTo(HaveOccurred())
		Expect(v).To(Equal(42))
	})

	It("enforces min/max bounds", func() {
		min, max := 0.0, 10.0
		f := &field.Number{SetLoc: mustLoc("score"), Min: &min, Max: &max}
		_, err := f.Parse(11.0)
		Expect(err).To(HaveOccurred())
	})

	It("parses numeric strings from form submissions", func() {
		f := &field.Number{SetLoc: mustLoc("score")}
		v, err := f.Parse("3.5")
		Expect(err).NotTo(HaveOccurred())
		Expect(v).To(Equal(3.5))
	})
})

var _ = Describe("Select", func() {
	It("resolves a single option id to its value", func() {
		f := field.NewSelect(mustLoc("color"), false, "dropdown", false, 0, 0, []field.Option{
			{Label: "Red", Value: "red"},
			{Label: "Blue", Value: "blue"},
		})
		v, err := f.Parse("1")
		Expect(err).NotTo(HaveOccurred())
		Expect(v).To(Equal("red"))
	})

	It("rejects an unknown option id", func() {
		f := field.NewSelect(mustLoc("color"), false, "dropdown", false, 0, 0, []field.Option{
			{Label: "Red", Value: "red"},
		})
		_, err := f.Parse("99")
		Expect(err).To(HaveOccurred())
	})

	It("resolves multiple ids when Multi is set", func() {
		f := field.NewSelect(mustLoc("tags"), false, "checkbox", true, 1, 2, []field.Option{
			{Label: "A", Value: "a"},
			{Label: "B", Value: "b"},
			{Label: "C", Value: "c"},
		})
		v, err := f.Parse([]any{"1", "3"})
		Expect(err).NotTo(HaveOccurred())
		Expect(v).To(Equal([]any{"a", "c"}))
	})

	It("enforces cardinality bounds on multi-select", func() {
		f := field.NewSelect(mustLoc("tags"), false, "checkbox", true, 1, 1, []field.Option{
			{Label: "A", Value: "a"},
			{Label: "B", Value: "b"},
		})
		_, err := f.Parse([]any{"1", "2"})
		Expect(err).To(HaveOccurred())
	})
})

var _ = Describe("Button", func() {
	It("resolves the pressed option to its value", func() {
		f := field.NewButton(mustLoc("action"), false, []field.Option{
			{Label: "Continue", Value: "continue", Primary: true},
			{Label: "Cancel", Value: "cancel"},
		})
		v, err := f.Parse("1")
		Expect(err).NotTo(HaveOccurred())
		Expect(v).To(Equal("continue"))
	})

	It("exposes the primary option id in the schema extras", func() {
		f := field.NewButton(mustLoc("action"), false, []field.Option{
			{Label: "Continue", Value: "continue", Primary: true},
			{Label: "Cancel", Value: "cancel"},
		})
		schema, err := f.GetSchema(nil)
		Expect(err).NotTo(HaveOccurred())
		Expect(schema.Extras["x-primary"]).To(Equal("1"))
	})
})
