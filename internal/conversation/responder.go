package conversation

import "context"

// DefaultReply is returned by StaticResponder when it has no text.
const DefaultReply = "すみません、うまく理解できませんでした。日付や予定名を含めてもう一度お願いします。"

// Responder produces a free-form reply for utterances the assistant does
// not act on.
type Responder interface {
	Respond(ctx context.Context, utterance string) (string, error)
}

// StaticResponder always replies with the same text.
type StaticResponder struct {
	Text string
}

// Respond implements Responder.
func (r StaticResponder) Respond(_ context.Context, _ string) (string, error) {
	if r.Text == "" {
		return DefaultReply, nil
	}
	return r.Text, nil
}
