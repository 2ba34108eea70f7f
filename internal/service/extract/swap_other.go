//go:build !linux

package extract

func exchange(_, _ string) error {
	return ErrExchangeUnsupported
}
