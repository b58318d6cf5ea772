package templates

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRenderGenericEmailEscapes(t *testing.T) {
	out := RenderGenericEmail("Case <1>", "line one\n<script>alert(1)</script>")

	assert.Contains(t, out, "<h1>Case &lt;1&gt;</h1>")
	assert.Contains(t, out, "line one<br>&lt;script&gt;")
	assert.NotContains(t, out, "<script>")
}

func TestCaseRegistered(t *testing.T) {
	subject, body := CaseRegistered(CaseEmail{
		Name:      "Asha",
		CaseID:    "CYB-2026-482913",
		CrimeType: "Phishing",
		TrackURL:  "https://portal.example/track/CYB-2026-482913",
	})

	assert.Equal(t, "Complaint registered: CYB-2026-482913", subject)
	assert.Contains(t, body, "Dear Asha,")
	assert.Contains(t, body, "Phishing complaint has been registered with case ID CYB-2026-482913")
	assert.Contains(t, body, "Track your case: https://portal.example/track/CYB-2026-482913")
}

func TestCaseStatusChanged(t *testing.T) {
	subject, body := CaseStatusChanged(CaseEmail{Name: "Asha", CaseID: "CYB-2026-482913", Status: "Assigned", AssignedOfficer: "SI Mehta"})

	assert.Equal(t, "Case CYB-2026-482913 is now Assigned", subject)
	assert.Contains(t, body, "Assigned officer: SI Mehta")
	assert.NotContains(t, body, "Track your case")
}
