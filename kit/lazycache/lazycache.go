// Package lazycache computes a value on first use and hands the same
// result to every later caller, including callers that race the first.
package lazycache

import "sync"

// ValueErr memoizes both the value and the error of its first
// initialization. A failed init is not retried.
type ValueErr[T any] struct {
	val  T
	err  error
	init sync.Once
}

func GetErr[T any](v *ValueErr[T], initFunc func() (T, error)) (T, error) {
	v.init.Do(func() { v.val, v.err = initFunc() })
	return v.val, v.err
}
