package consumer

import "time"

type Option func(*Consumer)

func DialAttempts(attempts int) Option {
	return func(c *Consumer) {
		c.dialAttempts = attempts
	}
}

func DialBackoff(backoff time.Duration) Option {
	return func(c *Consumer) {
		c.dialBackoff = backoff
	}
}

func MaxWait(maxWait time.Duration) Option {
	return func(c *Consumer) {
		c.maxWait = maxWait
	}
}
