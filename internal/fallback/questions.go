package fallback

import (
	"fmt"
	"strings"

	"github.com/spigell/talent-match/internal/recruitment"
)

type bankQuestion struct {
	qType    recruitment.QuestionType
	text     string
	options  []string
	expected string
}

// questionBank holds generic templates; %s is replaced by a technology.
var questionBank = []bankQuestion{
	{
		qType:    recruitment.QuestionTheory,
		text:     "Explica los conceptos fundamentales de %s y en qué casos lo elegirías frente a otras alternativas.",
		expected: "Describe los conceptos clave, sus ventajas y limitaciones, y compara con al menos una alternativa.",
	},
	{
		qType: recruitment.QuestionMultipleChoice,
		text:  "¿Qué práctica mejora más la mantenibilidad de un proyecto con %s?",
		options: []string{
			"Módulos pequeños con pruebas automatizadas e interfaces claras",
			"Concentrar toda la lógica en un único archivo",
			"Evitar la revisión de código para avanzar más rápido",
			"Desactivar las advertencias del compilador o linter",
		},
		expected: "Módulos pequeños con pruebas automatizadas e interfaces claras",
	},
	{
		qType:    recruitment.QuestionOpen,
		text:     "Describe un proyecto en el que usaste %s y el principal desafío técnico que resolviste.",
		expected: "Contexto del proyecto, decisión técnica tomada, alternativas consideradas y resultado medible.",
	},
	{
		qType:    recruitment.QuestionTrueFalse,
		text:     "Antes de desplegar a producción un cambio en %s conviene cubrirlo con pruebas automatizadas.",
		expected: "true",
	},
	{
		qType:    recruitment.QuestionCode,
		text:     "Escribe un fragmento de código con %s que valide una entrada y maneje los errores de forma explícita.",
		expected: "Valida la entrada, devuelve o propaga errores descriptivos y no ignora casos límite.",
	},
	{
		qType:    recruitment.QuestionOpen,
		text:     "¿Cómo diagnosticarías un problema de rendimiento en un sistema construido con %s?",
		expected: "Medición antes de optimizar, uso de perfiles o métricas, hipótesis verificables y validación del resultado.",
	},
}

var difficultyTags = map[recruitment.Difficulty]string{
	recruitment.DifficultyBasic:        "nivel básico",
	recruitment.DifficultyIntermediate: "nivel intermedio",
	recruitment.DifficultyAdvanced:     "nivel avanzado",
}

var difficultyPoints = map[recruitment.Difficulty]int{
	recruitment.DifficultyBasic:        5,
	recruitment.DifficultyIntermediate: 10,
	recruitment.DifficultyAdvanced:     15,
}

const genericTopic = "desarrollo de software"

// Questions returns count questions from the generic bank, tagged with the
// difficulty and technology. When the bank runs out the templates are reused
// with a variant suffix. Texts in exclude (case-insensitive) are skipped.
// IDs are left empty for the caller to assign.
func Questions(title string, technologies []string, difficulty recruitment.Difficulty, count int, exclude []string) []recruitment.QuestionSpec {
	if count <= 0 {
		return []recruitment.QuestionSpec{}
	}

	difficulty = recruitment.ParseDifficulty(string(difficulty))
	topics := topicsFor(title, technologies)

	type pair struct {
		tpl   bankQuestion
		topic string
	}
	base := make([]pair, 0, len(questionBank)*len(topics))
	for round := range questionBank {
		for t, topic := range topics {
			base = append(base, pair{tpl: questionBank[(round+t)%len(questionBank)], topic: topic})
		}
	}

	skip := make(map[string]struct{}, len(exclude))
	for _, text := range exclude {
		skip[TextKey(text)] = struct{}{}
	}

	questions := make([]recruitment.QuestionSpec, 0, count)
	for k := 0; len(questions) < count; k++ {
		p := base[k%len(base)]
		text := fmt.Sprintf(p.tpl.text, p.topic) + " (" + difficultyTags[difficulty] + ")"
		if variant := k / len(base); variant > 0 {
			text += fmt.Sprintf(" [variante %d]", variant+1)
		}

		key := TextKey(text)
		if _, dup := skip[key]; dup {
			continue
		}
		skip[key] = struct{}{}

		expected := p.tpl.expected
		q := recruitment.QuestionSpec{
			Text:           text,
			Type:           p.tpl.qType,
			ExpectedAnswer: &expected,
			MaxPoints:      difficultyPoints[difficulty],
			Order:          len(questions) + 1,
		}
		if len(p.tpl.options) > 0 {
			q.Options = append([]string(nil), p.tpl.options...)
		}
		questions = append(questions, q)
	}

	return questions
}

// TextKey normalizes a question text for duplicate detection.
func TextKey(text string) string {
	return strings.ToLower(strings.Join(strings.Fields(text), " "))
}

func topicsFor(title string, technologies []string) []string {
	topics := make([]string, 0, len(technologies))
	for _, s := range normalizeSkills(technologies) {
		topics = append(topics, s.display)
	}
	if len(topics) == 0 {
		if title = strings.TrimSpace(title); title != "" {
			topics = append(topics, title)
		} else {
			topics = append(topics, genericTopic)
		}
	}
	return topics
}
