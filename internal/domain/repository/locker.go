package repository

import "context"

// SequenceLocker serializa el acceso a una clave (tenant + frontera de numeración)
// hasta que termine la transacción que lo adquirió. Bloquea; no reintenta.
type SequenceLocker interface {
	Lock(ctx context.Context, key string) error
}
