package question_test

import (
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/loopfield/interview-engine/internal/field"
	"github.com/loopfield/interview-engine/internal/ierr"
	"github.com/loopfield/interview-engine/internal/locator"
	"github.com/loopfield/interview-engine/internal/question"
	"github.com/loopfield/interview-engine/internal/tmpl"
)

func mustLoc(src string) locator.Locator {
	l, err := locator.Parse(src)
	Expect(err).NotTo(HaveOccurred())
	return l
}

var _ = Describe("Question", func() {
	var engine *tmpl.Engine

	BeforeEach(func() {
		engine = tmpl.NewEngine()
	})

	newQuestion := func() *question.Question {
		name, err := field.NewText(mustLoc("name"), false, 0, 0, "", "", "", "")
		Expect(err).NotTo(HaveOccurred())
		nickname, err := field.NewText(mustLoc("nickname"), true, 0, 0, "", "", "", "")
		Expect(err).NotTo(HaveOccurred())

		title, err := engine.Compile("Tell us about yourself, {{ default(nickname, \"friend\") }}")
		Expect(err).NotTo(HaveOccurred())

		return &question.Question{
			ID:     "about_you",
			Title:  title,
			Fields: []field.Field{name, nickname},
		}
	}

	It("renders an object schema with required fields only for non-optional fields", func() {
		q := newQuestion()
		schema, err := q.GetSchema(map[string]any{})
		Expect(err).NotTo(HaveOccurred())
		Expect(schema.Type).To(Equal("object"))
		Expect(schema.Required).To(Equal([]string{"field_0"}))
		Expect(schema.Title).To(Equal("Tell us about yourself, friend"))
	})

	It("parses a response into locator assignments, omitting blank optional fields", func() {
		q := newQuestion()
		assignments, err := q.ParseResponse(map[string]any{
			"field_0": "Ada",
			"field_1": "",
		})
		Expect(err).NotTo(HaveOccurred())
		Expect(assignments).To(HaveLen(1))
		for loc, val := range assignments {
			Expect(loc.String()).To(Equal("name"))
			Expect(val).To(Equal("Ada"))
		}
	})

	It("collects every field error instead of failing on the first", func() {
		q := newQuestion()
		_, err := q.ParseResponse(map[string]any{
			"field_0": nil,
			"field_1": 5,
		})
		var invalid *ierr.InvalidInput
		Expect(err).To(BeAssignableToTypeOf(invalid))
		Expect(err.(*ierr.InvalidInput).Errors).To(HaveLen(2))
	})
})
