package config_test

import (
	"testing/fstest"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/loopfield/interview-engine/internal/config"
	"github.com/loopfield/interview-engine/internal/ierr"
	"github.com/loopfield/interview-engine/internal/step"
	"github.com/loopfield/interview-engine/internal/tmpl"
)

var _ = Describe("YAMLLoader", func() {
	var loader *config.YAMLLoader

	BeforeEach(func() {
		loader = config.NewYAMLLoader(tmpl.NewEngine())
	})

	It("loads an interview.yaml with an inline question and an ask step", func() {
		fsys := fstest.MapFS{
			"bundle/interview.yaml": {Data: []byte(`
id: simple-text
title: Simple text
questions:
  - id: q1
    fields:
      - kind: text
        set: name
        label: "Your name"
steps:
  - kind: ask
    ask: q1
`)},
		}

		iv, err := loader.LoadInterview(fsys, "bundle")
		Expect(err).NotTo(HaveOccurred())
		Expect(iv.ID).To(Equal("simple-text"))
		Expect(iv.QuestionOrder).To(Equal([]string{"q1"}))
		Expect(iv.Steps).To(HaveLen(1))
		_, ok := iv.Steps[0].(*step.Ask)
		Expect(ok).To(BeTrue())
	})

	It("resolves a question referenced by file, relative to the bundle directory", func() {
		fsys := fstest.MapFS{
			"bundle/interview.yaml": {Data: []byte(`
id: referenced
questions:
  - file: questions/q1.yaml
steps:
  - kind: ask
    ask: q1
`)},
			"bundle/questions/q1.yaml": {Data: []byte(`
id: q1
fields:
  - kind: text
    set: name
`)},
		}

		iv, err := loader.LoadInterview(fsys, "bundle")
		Expect(err).NotTo(HaveOccurred())
		_, ok := iv.Question("q1")
		Expect(ok).To(BeTrue())
	})

	It("derives the interview id from the title when id is omitted", func() {
		fsys := fstest.MapFS{
			"bundle/interview.yaml": {Data: []byte(`
title: My Great Interview
questions: []
steps: []
`)},
		}

		iv, err := loader.LoadInterview(fsys, "bundle")
		Expect(err).NotTo(HaveOccurred())
		Expect(iv.ID).To(Equal("my-great-interview"))
	})

	It("rejects an ask step that targets an unknown question id", func() {
		fsys := fstest.MapFS{
			"bundle/interview.yaml": {Data: []byte(`
id: broken
questions: []
steps:
  - kind: ask
    ask: nope
`)},
		}

		_, err := loader.LoadInterview(fsys, "bundle")
		var interviewErr *ierr.Interview
		Expect(err).To(BeAssignableToTypeOf(interviewErr))
	})

	It("builds a select field with auto-assigned option ids and a when guard", func() {
		fsys := fstest.MapFS{
			"bundle/interview.yaml": {Data: []byte(`
id: branching
questions:
  - id: q1
    when: "use_a1 == false"
    fields:
      - kind: select
        set: choice
        component: radio
        options:
          - label: "Yes"
            value: true
          - label: "No"
            value: false
steps:
  - kind: ask
    ask: q1
`)},
		}

		iv, err := loader.LoadInterview(fsys, "bundle")
		Expect(err).NotTo(HaveOccurred())
		q, ok := iv.Question("q1")
		Expect(ok).To(BeTrue())
		Expect(q.When).To(HaveLen(1))
		schema, err := q.GetSchema(map[string]any{})
		Expect(err).NotTo(HaveOccurred())
		Expect(schema.Properties.Len()).To(Equal(1))
	})
})
