package bot

import (
	"math/rand"
	"time"
)

// ResponsePolicy decides whether the bot interjects into ambient chatter and
// how long it pretends to type first.
type ResponsePolicy interface {
	ShouldRespond(probability float64) bool
	JitterDelay() time.Duration
}

type randomPolicy struct{}

// NewRandomPolicy returns the production policy backed by math/rand.
func NewRandomPolicy() ResponsePolicy {
	return randomPolicy{}
}

func (randomPolicy) ShouldRespond(probability float64) bool {
	return rand.Float64() < probability
}

func (randomPolicy) JitterDelay() time.Duration {
	return time.Duration(300+rand.Intn(1500)) * time.Millisecond
}
