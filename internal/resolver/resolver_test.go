package resolver_test

import (
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/loopfield/interview-engine/internal/field"
	"github.com/loopfield/interview-engine/internal/interview"
	"github.com/loopfield/interview-engine/internal/locator"
	"github.com/loopfield/interview-engine/internal/question"
	"github.com/loopfield/interview-engine/internal/resolver"
	"github.com/loopfield/interview-engine/internal/state"
	"github.com/loopfield/interview-engine/internal/tmpl"
)

func mustLoc(src string) locator.Locator {
	l, err := locator.Parse(src)
	Expect(err).NotTo(HaveOccurred())
	return l
}

func mustExpr(engine *tmpl.Engine, src string) tmpl.Expression {
	e, err := engine.CompileExpr(src)
	Expect(err).NotTo(HaveOccurred())
	return e
}

var _ = Describe("Resolve", func() {
	var engine *tmpl.Engine

	BeforeEach(func() { engine = tmpl.NewEngine() })

	It("chooses set-a-2 over set-a-1 per the branching scenario (spec.md §8 scenario 3)", func() {
		aField1, err := field.NewText(mustLoc("a"), false, 0, 0, "", "", "", "")
		Expect(err).NotTo(HaveOccurred())
		aField2, err := field.NewText(mustLoc("a"), false, 0, 0, "", "", "", "")
		Expect(err).NotTo(HaveOccurred())

		setA1 := &question.Question{
			ID:     "set-a-1",
			Fields: []field.Field{aField1},
			When:   []tmpl.Expression{mustExpr(engine, "use_a1")},
		}
		setA2 := &question.Question{
			ID:     "set-a-2",
			Fields: []field.Field{aField2},
			When:   []tmpl.Expression{mustExpr(engine, "use_a2")},
		}

		iv, err := interview.New("branching", "", []*question.Question{setA1, setA2}, nil)
		Expect(err).NotTo(HaveOccurred())

		s := state.New(iv.ID, nil, 0).WithData(map[string]any{
			"use_a1": false,
			"use_a2": true,
		})

		qid, schema, err := resolver.Resolve(iv, s, mustLoc("a"))
		Expect(err).NotTo(HaveOccurred())
		Expect(qid).To(Equal("set-a-2"))
		Expect(schema).NotTo(BeNil())
	})

	It("skips an already-answered question even if it would otherwise provide the locator", func() {
		aField, err := field.NewText(mustLoc("a"), false, 0, 0, "", "", "", "")
		Expect(err).NotTo(HaveOccurred())
		q := &question.Question{ID: "q1", Fields: []field.Field{aField}}
		iv, err := interview.New("iv", "", []*question.Question{q}, nil)
		Expect(err).NotTo(HaveOccurred())

		s := state.New(iv.ID, nil, 0).WithQuestion("q1")

		_, _, err = resolver.Resolve(iv, s, mustLoc("a"))
		Expect(err).To(HaveOccurred())
	})

	It("recurses onto the locator a question's own title depends on (scenario 4)", func() {
		bField, err := field.NewText(mustLoc("b"), false, 0, 0, "", "", "", "")
		Expect(err).NotTo(HaveOccurred())
		cField, err := field.NewText(mustLoc("c"), false, 0, 0, "", "", "", "")
		Expect(err).NotTo(HaveOccurred())

		askB := &question.Question{ID: "ask-b", Fields: []field.Field{bField}}
		askC := &question.Question{
			ID:     "ask-c",
			Title:  mustTemplate(engine, "B is: {{ b }}"),
			Fields: []field.Field{cField},
		}

		iv, err := interview.New("dependent", "", []*question.Question{askB, askC}, nil)
		Expect(err).NotTo(HaveOccurred())

		s := state.New(iv.ID, nil, 0)

		qid, _, err := resolver.Resolve(iv, s, mustLoc("c"))
		Expect(err).NotTo(HaveOccurred())
		Expect(qid).To(Equal("ask-b"), "resolving c should surface the still-missing b first")
	})

	It("raises InterviewError when no question provides the missing locator", func() {
		iv, err := interview.New("empty", "", nil, nil)
		Expect(err).NotTo(HaveOccurred())
		s := state.New(iv.ID, nil, 0)

		_, _, err = resolver.Resolve(iv, s, mustLoc("nowhere"))
		Expect(err).To(HaveOccurred())
	})
})

func mustTemplate(engine *tmpl.Engine, src string) tmpl.Template {
	t, err := engine.Compile(src)
	Expect(err).NotTo(HaveOccurred())
	return t
}
