package runner_test

import (
	"context"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/loopfield/interview-engine/internal/field"
	"github.com/loopfield/interview-engine/internal/interview"
	"github.com/loopfield/interview-engine/internal/locator"
	"github.com/loopfield/interview-engine/internal/question"
	"github.com/loopfield/interview-engine/internal/runner"
	"github.com/loopfield/interview-engine/internal/state"
	"github.com/loopfield/interview-engine/internal/step"
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

var _ = Describe("Runner", func() {
	var engine *tmpl.Engine

	BeforeEach(func() {
		engine = tmpl.NewEngine()
	})

	It("asks its one question, then completes on a valid submit (spec.md §8 scenario 1)", func() {
		nameField, err := field.NewText(mustLoc("name"), false, 0, 0, "", "", "", "")
		Expect(err).NotTo(HaveOccurred())
		q := &question.Question{ID: "q1", Fields: []field.Field{nameField}}

		iv, err := interview.New("simple-text", "", []*question.Question{q}, []step.Step{
			&step.Ask{AskID: "q1", Question: q},
		})
		Expect(err).NotTo(HaveOccurred())

		r := runner.New(iv)
		s := state.New(iv.ID, nil, 0)

		s, content, err := r.Run(context.Background(), s, nil)
		Expect(err).NotTo(HaveOccurred())
		ask, ok := content.(*runner.AskContent)
		Expect(ok).To(BeTrue())
		Expect(ask.QuestionID).To(Equal("q1"))
		Expect(ask.Schema.Required).To(Equal([]string{"field_0"}))
		Expect(*s.QuestionID).To(Equal("q1"))

		s, content, err = r.Run(context.Background(), s, map[string]any{"field_0": "Test"})
		Expect(err).NotTo(HaveOccurred())
		Expect(content).To(BeNil())
		Expect(s.Complete).To(BeTrue())
		Expect(s.Data["name"]).To(Equal("Test"))
		Expect(s.QuestionID).To(BeNil())
	})

	It("resolves an Eval-triggered undefined variable to the question that provides it (scenario 4)", func() {
		bField, err := field.NewText(mustLoc("b"), false, 0, 0, "", "", "", "")
		Expect(err).NotTo(HaveOccurred())
		qb := &question.Question{ID: "ask-b", Fields: []field.Field{bField}}

		iv, err := interview.New("dependent", "", []*question.Question{qb}, []step.Step{
			&step.Eval{Exprs: []tmpl.Expression{mustExpr(engine, "b")}},
			&step.Exit{Title: mustTemplate(engine, "done")},
		})
		Expect(err).NotTo(HaveOccurred())

		r := runner.New(iv)
		s := state.New(iv.ID, nil, 0)

		s, content, err := r.Run(context.Background(), s, nil)
		Expect(err).NotTo(HaveOccurred())
		ask, ok := content.(*runner.AskContent)
		Expect(ok).To(BeTrue())
		Expect(ask.QuestionID).To(Equal("ask-b"))

		s, content, err = r.Run(context.Background(), s, map[string]any{"field_0": "hi"})
		Expect(err).NotTo(HaveOccurred())
		exit, ok := content.(*runner.ExitContent)
		Expect(ok).To(BeTrue())
		Expect(exit.Title).To(Equal("done"))
		Expect(s.Complete).To(BeFalse(), "exit is content, not completion (spec.md §9 open question)")
	})

	It("never asks the same question twice for the same state (monotone answered set)", func() {
		nameField, err := field.NewText(mustLoc("name"), false, 0, 0, "", "", "", "")
		Expect(err).NotTo(HaveOccurred())
		q := &question.Question{ID: "q1", Fields: []field.Field{nameField}}
		iv, err := interview.New("iv", "", []*question.Question{q}, []step.Step{
			&step.Ask{AskID: "q1", Question: q},
		})
		Expect(err).NotTo(HaveOccurred())

		r := runner.New(iv)
		s := state.New(iv.ID, nil, 0)
		s, _, err = r.Run(context.Background(), s, nil)
		Expect(err).NotTo(HaveOccurred())
		before := len(s.AnsweredQuestionIDs)

		s, _, err = r.Run(context.Background(), s, map[string]any{"field_0": "Ada"})
		Expect(err).NotTo(HaveOccurred())
		Expect(len(s.AnsweredQuestionIDs)).To(Equal(before))
	})
})

func mustTemplate(engine *tmpl.Engine, src string) tmpl.Template {
	t, err := engine.Compile(src)
	Expect(err).NotTo(HaveOccurred())
	return t
}
