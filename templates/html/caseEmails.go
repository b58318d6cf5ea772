package templates

import (
	"fmt"
	"strings"
)

// CaseEmail is the data shown in case emails
type CaseEmail struct {
	Name            string
	CaseID          string
	CrimeType       string
	Status          string
	AssignedOfficer string
	TrackURL        string
}

// CaseRegistered returns the subject and plain-text body acknowledging a new case
func CaseRegistered(d CaseEmail) (subject, body string) {
	subject = fmt.Sprintf("Complaint registered: %s", d.CaseID)

	var b strings.Builder
	fmt.Fprintf(&b, "Dear %s,\n\n", d.Name)
	fmt.Fprintf(&b, "Your %s complaint has been registered with case ID %s.\n", d.CrimeType, d.CaseID)
	b.WriteString("Keep this ID safe, you will need it to track the case.\n")
	if d.TrackURL != "" {
		fmt.Fprintf(&b, "\nTrack your case: %s\n", d.TrackURL)
	}
	b.WriteString("\nIf you lost money, also call the national cyber crime helpline 1930 as soon as possible.")
	return subject, b.String()
}

// CaseStatusChanged returns the subject and plain-text body announcing a new status
func CaseStatusChanged(d CaseEmail) (subject, body string) {
	subject = fmt.Sprintf("Case %s is now %s", d.CaseID, d.Status)

	var b strings.Builder
	fmt.Fprintf(&b, "Dear %s,\n\n", d.Name)
	fmt.Fprintf(&b, "The status of your case %s has changed to %s.\n", d.CaseID, d.Status)
	if d.AssignedOfficer != "" {
		fmt.Fprintf(&b, "Assigned officer: %s\n", d.AssignedOfficer)
	}
	if d.TrackURL != "" {
		fmt.Fprintf(&b, "\nTrack your case: %s\n", d.TrackURL)
	}
	return subject, b.String()
}
