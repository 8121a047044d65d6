package producer

import "time"

type Option func(*Producer)

func DialAttempts(attempts int) Option {
	return func(p *Producer) {
		p.dialAttempts = attempts
	}
}

func DialBackoff(backoff time.Duration) Option {
	return func(p *Producer) {
		p.dialBackoff = backoff
	}
}

func BatchTimeout(timeout time.Duration) Option {
	return func(p *Producer) {
		p.batchTimeout = timeout
	}
}
