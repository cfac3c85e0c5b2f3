package ledger

// Status is one entry of the fixed emoji vocabulary members react with.
// A non-empty Prompt marks the status as requiring a follow-up detail.
type Status struct {
	Emoji  string
	Label  string
	Prompt string
	Hint   string
}

// RequiresFollowUp reports whether the status needs a detail before it is
// complete.
func (s Status) RequiresFollowUp() bool {
	return s.Prompt != ""
}

// The closed status vocabulary. Order is preserved for check-in rendering.
// Extending it is a compile-time change, not runtime configuration.
var vocabulary = []Status{
	{Emoji: "✅", Label: "In at Normal Time", Hint: "checkmark"},
	{Emoji: "⏱️", Label: "In Late", Prompt: "What time do you expect to be in?", Hint: "stopwatch"},
	{Emoji: "🏠", Label: "Working from Home", Hint: "house"},
	{Emoji: "🗓️", Label: "Appointment", Prompt: "What time do you expect to be in?", Hint: "calendar"},
	{Emoji: "🤒", Label: "Out Sick", Hint: "thermometer"},
	{Emoji: "🌴", Label: "Liberty", Hint: "palm tree"},
	{Emoji: "❓", Label: "Other", Prompt: "Please provide your status for the day.", Hint: "question mark"},
}

var vocabularyByEmoji = func() map[string]Status {
	m := make(map[string]Status, len(vocabulary))
	for _, s := range vocabulary {
		m[s.Emoji] = s
	}
	return m
}()

// LookupStatus resolves an emoji against the vocabulary.
func LookupStatus(emoji string) (Status, bool) {
	s, ok := vocabularyByEmoji[emoji]
	return s, ok
}

// Vocabulary returns the status table in declaration order.
func Vocabulary() []Status {
	out := make([]Status, len(vocabulary))
	copy(out, vocabulary)
	return out
}
