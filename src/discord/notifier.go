package discord

import (
	"errors"

	"github.com/stake-plus/countdown/src/countdown"
	"github.com/stake-plus/countdown/src/logging"
	"go.uber.org/zap"
)

const (
	ReactWrongNumber = "❌"
	ReactSameAuthor  = "⛔"
	ReactCelebrate   = "🥳"
)

// Notifier turns countdown outcomes into reactions and pins.
type Notifier struct {
	session Session
	log     *zap.Logger
}

func NewNotifier(s Session, log *zap.Logger) *Notifier {
	return &Notifier{session: s, log: log.Named("notifier")}
}

// Apply reacts to the message an outcome belongs to. Every action is attempted; the
// returned error joins the failures.
func (n *Notifier) Apply(channelID, messageID string, out countdown.Outcome) error {
	var errs []error
	react := func(emoji string) {
		if err := n.session.MessageReactionAdd(channelID, messageID, emoji); err != nil {
			errs = append(errs, n.report("react", channelID, messageID, err))
		}
	}

	switch out.Reject {
	case countdown.RejectWrongNumber:
		react(ReactWrongNumber)
	case countdown.RejectSameAuthor:
		react(ReactSameAuthor)
	}
	if !out.Accepted {
		return errors.Join(errs...)
	}

	if out.Signals.Celebrate {
		react(ReactCelebrate)
	}
	if out.Signals.PinWorthy {
		if err := n.session.ChannelMessagePin(channelID, messageID); err != nil {
			errs = append(errs, n.report("pin", channelID, messageID, err))
		}
	}
	for _, tok := range out.Signals.Triggers {
		react(tok)
	}
	return errors.Join(errs...)
}

func (n *Notifier) report(action, channelID, messageID string, err error) error {
	fields := []zap.Field{
		zap.String("action", action),
		zap.String("channel", channelID),
		zap.String("message", messageID),
		zap.Error(err),
	}
	if logging.IsRateLimit(err) {
		n.log.Warn("rate limited", fields...)
	} else {
		n.log.Error("notify failed", fields...)
	}
	return err
}
