package utils

// Server-side strings only. Dashboard copy lives in the front end and reports
// are rendered in English.
var translations = map[string]map[string]string{
	"en": {
		"health.ok":            "ok",
		"risk.high":            "High Priority",
		"risk.high.desc":       "Immediate professional consultation recommended",
		"risk.moderate":        "Moderate Priority",
		"risk.moderate.desc":   "Professional review suggested",
		"risk.low":             "Low Priority",
		"risk.low.desc":        "Continue monitoring and support",
		"error.unauthorized":   "unauthorized",
		"error.incomplete":     "please answer every rating question",
		"appointment.location": "Virtual Consultation",
	},
	"es": {
		"health.ok":            "bien",
		"risk.high":            "Prioridad alta",
		"risk.high.desc":       "Se recomienda una consulta profesional inmediata",
		"risk.moderate":        "Prioridad moderada",
		"risk.moderate.desc":   "Se sugiere una revisión profesional",
		"risk.low":             "Prioridad baja",
		"risk.low.desc":        "Continúe con el seguimiento y el apoyo",
		"error.unauthorized":   "no autorizado",
		"error.incomplete":     "responda todas las preguntas de calificación",
		"appointment.location": "Consulta virtual",
	},
}

// T returns the translated string for key in locale; falls back to English, then the key.
func T(locale, key string) string {
	if v, ok := translations[locale][key]; ok {
		return v
	}
	if v, ok := translations["en"][key]; ok {
		return v
	}
	return key
}
