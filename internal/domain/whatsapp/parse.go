package whatsapp

import (
	"regexp"
	"strings"
	"time"
)

// Parsed is the structured reading of an inbound message.
type Parsed struct {
	Intent    string
	LeaveKind string
	StartDate time.Time
	EndDate   time.Time
	Reason    string
}

var dateRe = regexp.MustCompile(`\d{4}-\d{2}-\d{2}|\d{2}/\d{2}/\d{4}`)

// leaveKeywords map the words people actually type to the leave type names
// seeded in the catalog.
var leaveKeywords = map[string]string{
	"vacaciones": "Vacaciones",
	"enfermedad": "Enfermedad",
	"enfermo":    "Enfermedad",
	"enferma":    "Enfermedad",
	"medico":     "Enfermedad",
	"médico":     "Enfermedad",
	"personal":   "Personal",
	"estudio":    "Estudio",
	"examen":     "Estudio",
}

// Parse classifies an inbound message. Leave requests are expected as
// "licencia <tipo> <desde> <hasta> [motivo]", with dates in either
// YYYY-MM-DD or DD/MM/YYYY form.
func Parse(body string) Parsed {
	text := strings.ToLower(strings.TrimSpace(body))
	switch {
	case text == "":
		return Parsed{Intent: IntentUnknown}
	case strings.HasPrefix(text, "hola") || strings.HasPrefix(text, "buenas") || strings.HasPrefix(text, "buen dia") || strings.HasPrefix(text, "buen día"):
		return Parsed{Intent: IntentGreeting}
	case strings.Contains(text, "estado") || strings.Contains(text, "consulta"):
		return Parsed{Intent: IntentStatus}
	}

	isLeave := strings.Contains(text, "licencia") || strings.Contains(text, "solicitar")
	var kind string
	for keyword, name := range leaveKeywords {
		if strings.Contains(text, keyword) {
			kind = name
			isLeave = true
			break
		}
	}
	if !isLeave {
		return Parsed{Intent: IntentUnknown}
	}

	p := Parsed{Intent: IntentRequestLeave, LeaveKind: kind}
	dates := dateRe.FindAllString(body, -1)
	if len(dates) >= 1 {
		p.StartDate, _ = parseDate(dates[0])
	}
	if len(dates) >= 2 {
		p.EndDate, _ = parseDate(dates[1])
	} else {
		p.EndDate = p.StartDate
	}
	if len(dates) > 0 {
		if idx := strings.Index(body, dates[len(dates)-1]); idx >= 0 {
			p.Reason = strings.TrimSpace(body[idx+len(dates[len(dates)-1]):])
		}
	}
	return p
}

func parseDate(s string) (time.Time, error) {
	if strings.Contains(s, "/") {
		return time.Parse("02/01/2006", s)
	}
	return time.Parse("2006-01-02", s)
}
