package nlp

// Intent is a classified label describing what the user wants this turn.
type Intent string

const (
	IntentAddFact         Intent = "add_fact"
	IntentChangeFact      Intent = "change_fact"
	IntentDeleteFact      Intent = "delete_fact"
	IntentViewFacts       Intent = "view_facts"
	IntentSilenceStudying Intent = "silence_studying"
	IntentStudyNextFact   Intent = "study_next_fact"
	IntentHelp            Intent = "help"
	IntentDefault         Intent = "default_intent"
)
