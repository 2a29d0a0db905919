package assistant

import (
	"context"
	"strings"
)

// CannedProvider is the local fallback used when the remote endpoint is
// unreachable. It always succeeds so the user always gets a reply.
type CannedProvider struct{}

func NewCannedProvider() *CannedProvider {
	return &CannedProvider{}
}

var cannedReplies = []struct {
	keywords []string
	reply    string
}{
	{
		keywords: []string{"comer", "comida", "dieta", "aliment"},
		reply: "Durante el embarazo conviene una dieta variada: frutas, verduras, " +
			"cereales integrales, proteínas magras y lácteos pasteurizados. Evita " +
			"pescados con alto contenido de mercurio y los alimentos crudos. " +
			"Consulta siempre a tu profesional de salud.",
	},
	{
		keywords: []string{"ejercicio", "deporte", "actividad"},
		reply: "El ejercicio moderado, como caminar o nadar, suele ser beneficioso " +
			"durante el embarazo. Antes de empezar una rutina nueva, coméntalo " +
			"con tu profesional de salud.",
	},
	{
		keywords: []string{"náusea", "nausea", "vómito", "vomito", "mareo"},
		reply: "Las náuseas son frecuentes en el primer trimestre. Comidas pequeñas " +
			"y frecuentes, jengibre y evitar olores fuertes pueden ayudar. Si son " +
			"intensas o persistentes, consulta a tu profesional de salud.",
	},
	{
		keywords: []string{"dormir", "sueño", "sueno", "descanso"},
		reply: "Dormir de lado, sobre todo el izquierdo, mejora la circulación en " +
			"el embarazo. Una almohada entre las rodillas puede hacerlo más cómodo.",
	},
}

const cannedDefault = "Gracias por tu pregunta. En este momento no puedo conectar con el " +
	"asistente, pero recuerda que para cualquier duda sobre tu embarazo lo más " +
	"seguro es consultar a tu profesional de salud. ¿Hay algo más en lo que " +
	"pueda orientarte?"

func (p *CannedProvider) Ask(ctx context.Context, question string) (string, error) {
	_ = ctx
	q := strings.ToLower(question)
	for _, c := range cannedReplies {
		for _, kw := range c.keywords {
			if strings.Contains(q, kw) {
				return c.reply, nil
			}
		}
	}
	return cannedDefault, nil
}
