package s3client

import "time"

type Option func(*S3Client)

func DialAttempts(attempts int) Option {
	return func(c *S3Client) {
		c.dialAttempts = attempts
	}
}

func DialBackoff(backoff time.Duration) Option {
	return func(c *S3Client) {
		c.dialBackoff = backoff
	}
}

func Region(region string) Option {
	return func(c *S3Client) {
		c.region = region
	}
}

func UsePathStyle(use bool) Option {
	return func(c *S3Client) {
		c.usePathStyle = use
	}
}
