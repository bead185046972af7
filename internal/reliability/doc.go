// Package reliability provides retry policies for the notification pipeline.
//
// The broker dialer uses ExponentialBackoff with a 5s initial delay,
// multiplier 2 and 5 retries, giving the delay sequence 5s, 10s, 20s,
// 40s, 80s before the connection attempt is declared fatal.
package reliability
