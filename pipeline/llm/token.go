package llm

import (
	"fmt"
	"sync"

	"github.com/pkoukk/tiktoken-go"
	"github.com/reelforge/reelforge/common/logger"
)

var tokenEncoder *tiktoken.Tiktoken
var tokenEncoderOnce sync.Once

// InitTokenEncoder loads the BPE once at startup. Encoding data is fetched
// over the network on first use, so failing here only degrades accounting
// to the character approximation.
func InitTokenEncoder() {
	tokenEncoderOnce.Do(func() {
		encoder, err := tiktoken.EncodingForModel("gpt-4o")
		if err != nil {
			logger.SysError(fmt.Sprintf("failed to get token encoder: %s", err.Error()))
			return
		}
		tokenEncoder = encoder
	})
}

// CountTokenText counts billing tokens for text, approximating when no
// encoder is available.
func CountTokenText(text string) int {
	if tokenEncoder == nil {
		return int(float64(len(text)) * 0.38)
	}
	return len(tokenEncoder.Encode(text, nil, nil))
}
