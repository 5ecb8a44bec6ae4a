package poll

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/google/uuid"

	"easypoll/slack"
)

// Number emojis only exist for single digits, which caps a poll at nine
// options.
var numberWords = [...]string{
	"zero", "one", "two", "three", "four",
	"five", "six", "seven", "eight", "nine",
}

var voteCountSuffix = regexp.MustCompile(" `\\d+`$")

// MessageBlocks renders the posted form of a poll and returns the block
// layout together with the empty vote state, one entry per option id.
//
// The top block id carries the record sort key ("uuid:{ms}" for scheduled
// occurrences, ":{ms}" otherwise) so vote callbacks can find the record.
func MessageBlocks(topID, title string, options []string, anonymous bool, voteLimit int, createdBy string, scheduled bool) ([]slack.Block, map[string][]string) {
	heading := title
	if anonymous {
		heading += " - (anonymous)"
	}
	if voteLimit > 0 {
		heading += fmt.Sprintf(" - max %d votes per person", voteLimit)
	}

	blocks := []slack.Block{
		slack.Section(topID, slack.PlainText(heading), nil),
	}
	votes := make(map[string][]string, len(options))

	for idx, option := range options {
		idx++
		optionID := fmt.Sprintf("option-%d", idx)
		votes[optionID] = []string{}
		emoji := fmt.Sprintf(":%s:", numberWords[idx])

		blocks = append(blocks,
			slack.Section(optionID,
				slack.Markdown(fmt.Sprintf("%s %s", emoji, option)),
				slack.Button(emoji, ActionVote, "vote-"+uuid.NewString())),
			slack.Section(optionID+"-people", slack.Markdown(" "), nil),
		)
	}

	footer := fmt.Sprintf("Poll created by <@%s>", createdBy)
	if scheduled {
		footer += ", scheduled regularly"
	}
	return append(blocks, slack.Context(slack.Markdown(footer))), votes
}

// RenderVotes rewrites the vote counts and voter lists of a poll's block
// layout from the persisted vote state. The input blocks are not mutated.
func RenderVotes(blocks []slack.Block, votes map[string][]string, anonymous bool) []slack.Block {
	out := make([]slack.Block, len(blocks))
	copy(out, blocks)

	for i, block := range out {
		if !strings.HasPrefix(block.BlockID, "option-") || block.Text == nil {
			continue
		}
		text := *block.Text

		if strings.HasSuffix(block.BlockID, "-people") {
			vote := votes[strings.TrimSuffix(block.BlockID, "-people")]
			if anonymous {
				text.Text = strings.Repeat(":thumbsup:", len(vote)) + " "
			} else {
				text.Text = strings.Join(vote, " ") + " "
			}
		} else {
			vote := votes[block.BlockID]
			text.Text = voteCountSuffix.ReplaceAllString(text.Text, "")
			if len(vote) > 0 {
				text.Text += fmt.Sprintf(" `%d`", len(vote))
			}
		}
		out[i].Text = &text
	}
	return out
}
