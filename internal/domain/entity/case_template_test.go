package entity

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func newTestTemplate() *CaseTemplate {
	return &CaseTemplate{
		ID:              5,
		Title:           "밀실 살인",
		Difficulty:      3,
		TrueCulpritName: "용의자 A",
		Evidences: []OriginalEvidence{
			{ID: 1, Description: "창문은 안에서 잠겨 있었다"},
			{ID: 2, Description: "피해자의 시계가 멈춰 있었다"},
			{ID: 3, Description: "복도에 젖은 발자국이 있었다"},
			{ID: 4, Description: "좌측 문이 잠겨있었다", IsFakeCandidate: true},
			{ID: 5, Description: "{name}이(가) 현장 근처에서 목격되었다", IsFakeCandidate: true},
		},
		Suspects: []CaseSuspect{{Name: "용의자 A"}, {Name: "용의자 B"}, {Name: "용의자 C"}},
	}
}

func TestCaseTemplate_EvidenceSplit(t *testing.T) {
	tpl := newTestTemplate()

	assert.Len(t, tpl.TrueEvidences(), 3)
	assert.Len(t, tpl.FakeCandidates(), 2)
}

func TestCaseTemplate_FindFakeCandidate(t *testing.T) {
	tpl := newTestTemplate()

	e, ok := tpl.FindFakeCandidate("좌측 문이 잠겨있었다", "moriarty")
	assert.True(t, ok)
	assert.Equal(t, uint(4), e.ID)

	// уже подставленный текст тоже принимается
	e, ok = tpl.FindFakeCandidate("moriarty이(가) 현장 근처에서 목격되었다", "moriarty")
	assert.True(t, ok)
	assert.Equal(t, uint(5), e.ID)

	// истинная улика не может быть выбрана как ложная
	_, ok = tpl.FindFakeCandidate("창문은 안에서 잠겨 있었다", "moriarty")
	assert.False(t, ok)
}

func TestCaseTemplate_Suspects(t *testing.T) {
	tpl := newTestTemplate()

	assert.True(t, tpl.HasSuspect("용의자 B"))
	assert.True(t, tpl.HasSuspect(" 용의자 B "))
	assert.False(t, tpl.HasSuspect("용의자 Z"))
	assert.Equal(t, []string{"용의자 A", "용의자 B", "용의자 C"}, tpl.SuspectNames())
}

func TestExpandPlaceholder(t *testing.T) {
	assert.Equal(t, "lupin이(가) 왔다", ExpandPlaceholder("{name}이(가) 왔다", "lupin"))
	assert.Equal(t, "변화 없음", ExpandPlaceholder("변화 없음", "lupin"))
}
