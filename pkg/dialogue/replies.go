package dialogue

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/papercomputeco/studybot/pkg/flashcard"
)

// UsageInstructions lists what the bot understands.
const UsageInstructions = `Here's what I can help with:
- "add a fact" to save a new question and answer
- "change a fact" to edit one of your facts
- "delete a fact" to remove one
- "show my facts" to see everything you've saved
- "study" to review the next fact that's due
- "silence for 2 days" to pause study reminders`

const (
	replyAskQuestion        = "Ok, let's add that new fact. What is the question?"
	replyAskChangedQuestion = "Ok, let's update that new fact. What is the question?"
	replyEmptyQuestion      = "I need a question for that fact. What is the question?"
	replyAskAnswer          = "Thanks, what's the answer to that question?"
	replyEmptyAnswer        = "I need an answer for that fact. What's the answer?"
	replyWhichToChange      = "Ok, which fact do you want to change?"
	replyWhichToDelete      = "Ok, which fact do you want to delete?"
	replyViewHeader         = "Ok, here are the facts we have."
	replyNoFacts            = "You don't have any facts yet."
	replyFactNotFound       = "Whoops! We don't have a fact for you. Try viewing your facts to get the ID."
	replyDeleted            = "Fact deleted successfully."
	replyDeleteFailed       = "Failed to delete fact."
	replyDeleteCancelled    = "Ok, I won't delete that fact."
	replyAskSilence         = "Ok, how long do you want to silence notifications for?"
	replyNoDuration         = "Sorry, I couldn't get a duration from that."
	replyCaughtUp           = "No studying needed! You're all caught up."
	replyStudied            = "Got it, fact studied!"
	replyBadRating          = "I didn't get a number from that, can you try again on a scale from 0 to 5?"
	replyTimeToStudy        = "Time to study!"
	replyNotUnderstood      = "I'm not sure what you mean."
)

var greetingPhrases = []string{
	"Hey %s, how the heck are ya? Me, you ask? I'm feeling a little blue. :)",
	"Studying again %s? Look at you! We gotta future Rhodes scholar here!",
	"You want to study right now, %s? Nerd Alert! Nerds are so in right now!",
}

var confirmations = []string{"yes", "yea", "yep", "y"}

func welcome(firstName string) string {
	return fmt.Sprintf("Hello %s, I'm StudyBot. Nice to meet you!\n\n%s", firstName, UsageInstructions)
}

func notUnderstood() string {
	return replyNotUnderstood + "\n\n" + UsageInstructions
}

func letsStudy(fact *flashcard.Fact) string {
	return "Ok, let's study!\n" + fact.Question
}

func revealAnswer(fact *flashcard.Fact) string {
	return "Here is the answer:\n" + fact.Answer +
		"\nHow hard was that on a scale from 0 (impossible) to 5 (trivial)?"
}

func confirmDelete(fact *flashcard.Fact) string {
	return fmt.Sprintf("Are you sure you want to delete this fact?\nQuestion: %s\nAnswer: %s", fact.Question, fact.Answer)
}

func saved(verb string, fact *flashcard.Fact) string {
	return fmt.Sprintf("Ok, I %sd the following question and answer:\nQuestion: %s\nAnswer: %s", verb, fact.Question, fact.Answer)
}

func saveFailed(verb string) string {
	return fmt.Sprintf("We couldn't %s that fact.", verb)
}

func silenced(until time.Time) string {
	return fmt.Sprintf("Ok, silencing study notifications until %s.", until.UTC().Format(time.RFC1123))
}

// isConfirmation reports whether text is one of the affirmative tokens.
func isConfirmation(text string) bool {
	t := strings.ToLower(strings.TrimSpace(text))
	for _, c := range confirmations {
		if t == c {
			return true
		}
	}
	return false
}

// listing renders one message per fact. detailed adds the scheduling fields.
func listing(facts []*flashcard.Fact, detailed bool) []string {
	out := make([]string, 0, len(facts))
	for _, f := range facts {
		var b strings.Builder
		fmt.Fprintf(&b, "Id: %d\nQuestion: %s\nAnswer: %s\n", f.ID, f.Question, f.Answer)
		if detailed {
			fmt.Fprintf(&b, "Easiness: %s\n", strconv.FormatFloat(f.EaseFactor, 'f', -1, 64))
			fmt.Fprintf(&b, "Consecutive Correct Answers: %d\n", f.ConsecutiveCorrect)
			fmt.Fprintf(&b, "Next Study Time: %s\n", formatTime(f.NextDue, "now"))
			fmt.Fprintf(&b, "Last Seen: %s\n", formatTime(&f.LastReviewed, "never"))
		}
		out = append(out, b.String())
	}
	return out
}

func formatTime(t *time.Time, unset string) string {
	if t == nil || t.IsZero() {
		return unset
	}
	return t.UTC().Format(time.RFC1123)
}
