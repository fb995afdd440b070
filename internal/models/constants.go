package models

const (
	PizzaNameRegex   = `(?i)pizza\s+(.+?)[\?\.]?$`
	ThinkTag         = `(?s)<think>.*?</think>`
	ContextSeparator = "\n\n"

	MetadataSource  = "source"
	MetadataPage    = "page"
	MetadataChunkID = "chunk_id"
)

var (
	// AnswerPromptTemplate is a Go template with the context and question
	// input variables.
	AnswerPromptTemplate = `Vous êtes l’assistant de Bella Napoli.
Vous disposez de deux sources :
- le MENU (source="menu") contenant les noms de pizzas et leurs ingrédients,
- la LISTE_ALLERGENES (source="allergens") listant chaque allergène et son numéro.

1. Si la question porte sur les **ingrédients** d’une pizza X, répondez :
   “Ingrédients de la pizza X : ….”

2. Si la question porte sur les **allergènes** d’une pizza X, répondez :
   “Allergènes de la pizza X (codes) : ….”
   Si possible, donnez aussi le nom de l’allergène entre parenthèses.

3. Si la pizza X n’existe pas dans le MENU, répondez :
   “D’après la documentation Bella Napoli, il n’existe pas de pizza « X » dans le menu fourni.”

4. N’ajoutez pas d’informations non présentes dans les documents.

Contexte (extraits les plus pertinents) :
{{.context}}

Question :
{{.question}}

Réponse :`

	AnswerPromptInputVariables = []string{"context", "question"}
)
