// Package prompt 负责把检索上下文与任务指令组装为最终的生成提示词。
package prompt

import "fmt"

// 学习计划的每个参数轴都是封闭枚举，每个取值对应一条固定指令。
// 新增取值必须同时补齐指令映射，测试会逐一枚举校验。

// Urgency 表示备考紧迫程度。
type Urgency string

const (
	UrgencyCram Urgency = "cram"
	UrgencyDeep Urgency = "deep"
)

// Directive 返回该取值对应的指令句。
func (u Urgency) Directive() (string, error) {
	switch u {
	case UrgencyCram:
		return "URGENT (Exam is Tomorrow). Prioritize the most frequently tested concepts and simplify explanations for rapid memorization. Skip fluff.", nil
	case UrgencyDeep:
		return "Deep Study. Provide comprehensive, deeply technical, and nuance-heavy explanations.", nil
	}
	return "", fmt.Errorf("unknown urgency: %q", string(u))
}

// TargetGrade 表示目标分数档位。
type TargetGrade string

const (
	GradePass TargetGrade = "pass"
	GradeTop  TargetGrade = "top"
)

func (g TargetGrade) Directive() (string, error) {
	switch g {
	case GradePass:
		return "Focus purely on the absolute minimum core concepts required to just pass the exam.", nil
	case GradeTop:
		return "Provide top-tier, exhaustive details aimed at scoring 100% in the exam.", nil
	}
	return "", fmt.Errorf("unknown target grade: %q", string(g))
}

// Style 表示讲解风格。
type Style string

const (
	StyleSimplified Style = "simplified"
	StyleAcademic   Style = "academic"
)

func (s Style) Directive() (string, error) {
	switch s {
	case StyleSimplified:
		return "Use extreme \"Explain Like I am 5\" (ELI5) analogies, simple language, and avoid dense jargon where possible.", nil
	case StyleAcademic:
		return "Use strictly formal academic language, industry-standard jargon, and highly rigorous technical definitions.", nil
	}
	return "", fmt.Errorf("unknown style: %q", string(s))
}

// AnswerLength 表示答案详略程度。
type AnswerLength string

const (
	LengthShort AnswerLength = "short"
	LengthLong  AnswerLength = "long"
)

func (l AnswerLength) Directive() (string, error) {
	switch l {
	case LengthShort:
		return "Generate SHORT, punchy, crisp, 2-mark to 5-mark bullet points.", nil
	case LengthLong:
		return "Generate VERY detailed, 10-mark essay length answers with complex multi-level structures, headings, and detailed examples.", nil
	}
	return "", fmt.Errorf("unknown answer length: %q", string(l))
}

// ExamType 表示试卷类型。
type ExamType string

const (
	ExamMid      ExamType = "mid"
	ExamSemester ExamType = "semester"
)

// ParseExamType 校验外部传入的试卷类型。
func ParseExamType(s string) (ExamType, error) {
	switch ExamType(s) {
	case ExamMid, ExamSemester:
		return ExamType(s), nil
	}
	return "", fmt.Errorf("invalid examType: %q, must be \"mid\" or \"semester\"", s)
}

// PlanDirectives 是学习计划的完整参数集。
// TargetUnit 由调用方单调递增，用于把生成内容隔离到单个单元。
type PlanDirectives struct {
	Urgency      Urgency
	TargetGrade  TargetGrade
	Style        Style
	AnswerLength AnswerLength
	TargetUnit   int
}

// Block 把各轴解析为指令块；任一取值未知即报错，绝不静默取默认。
func (d PlanDirectives) Block() (string, error) {
	urgency, err := d.Urgency.Directive()
	if err != nil {
		return "", err
	}
	grade, err := d.TargetGrade.Directive()
	if err != nil {
		return "", err
	}
	style, err := d.Style.Directive()
	if err != nil {
		return "", err
	}
	length, err := d.AnswerLength.Directive()
	if err != nil {
		return "", err
	}

	return fmt.Sprintf(`USER EXAM PARAMETERS:
- Exam Proximity: %s
- Target Grade: %s
- Explanation Style: %s
- Desired Answer Detail: %s`, urgency, grade, style, length), nil
}
