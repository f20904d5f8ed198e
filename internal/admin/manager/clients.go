package manager

import (
	"context"
	"time"

	"github.com/aussiebroadwan/greenadmin/internal/admin/domain"
	"github.com/aussiebroadwan/greenadmin/internal/admin/store"
	"github.com/aussiebroadwan/greenadmin/pkg/cryptox"
	"github.com/aussiebroadwan/greenadmin/pkg/idx"
	"github.com/aussiebroadwan/greenadmin/pkg/slogx"
)

const kindClients = domain.KindClients

type ClientManager struct {
	Store store.Store
}

func (m *ClientManager) Any(ctx context.Context) (bool, error) {
	return call(ctx, kindClients, opAny, func() (bool, error) {
		n, err := m.Store.Clients().CountClients(ctx)
		return n > 0, err
	})
}

func (m *ClientManager) Count(ctx context.Context) (int, error) {
	return call(ctx, kindClients, opCount, func() (int, error) {
		return m.Store.Clients().CountClients(ctx)
	})
}

func (m *ClientManager) List(ctx context.Context) ([]domain.Client, error) {
	return call(ctx, kindClients, opList, func() ([]domain.Client, error) {
		return m.Store.Clients().ListClients(ctx)
	})
}

// FindByClientID reports ok=false when no client carries clientID.
func (m *ClientManager) FindByClientID(ctx context.Context, clientID string) (domain.Client, bool, error) {
	if err := domain.RequireArg("clientID", clientID); err != nil {
		return domain.Client{}, false, err
	}

	var found bool
	c, err := call(ctx, kindClients, opFind, func() (domain.Client, error) {
		c, ok, err := find(m.Store.Clients().GetClientByClientID(ctx, clientID))
		found = ok
		return c, err
	})
	return c, found, err
}

// GetByClientID is FindByClientID for callers that expect the client to exist.
func (m *ClientManager) GetByClientID(ctx context.Context, clientID string) (domain.Client, error) {
	if err := domain.RequireArg("clientID", clientID); err != nil {
		return domain.Client{}, err
	}
	return call(ctx, kindClients, opFind, func() (domain.Client, error) {
		c, err := m.Store.Clients().GetClientByClientID(ctx, clientID)
		return c, notFound(err, kindClients, clientID)
	})
}

// Create stores c with a fresh id, hashing any secret not yet hashed.
func (m *ClientManager) Create(ctx context.Context, c domain.Client, actor string) (domain.Client, error) {
	if err := domain.RequireArg("clientID", c.ClientID); err != nil {
		return domain.Client{}, err
	}
	if err := requireActor(actor); err != nil {
		return domain.Client{}, err
	}

	c.ID = idx.NewString()
	c.ClientSecrets = hashSecrets(c.ClientSecrets)

	created, err := call(ctx, kindClients, opCreate, func() (out domain.Client, err error) {
		err = m.Store.WithTx(ctx, func(tx store.Tx) error {
			if err := tx.Clients().CreateClient(ctx, c); err != nil {
				return err
			}
			out, err = tx.Clients().GetClientByClientID(ctx, c.ClientID)
			return err
		})
		return out, err
	})
	if err != nil {
		return domain.Client{}, err
	}

	audit(ctx, kindClients, opCreate, c.ClientID, actor)
	return created, nil
}

// Update overwrites the client keyed by c.ClientID. Every child collection
// (grant types, scopes, secrets, redirect and logout URIs, CORS origins,
// claims) is replaced wholesale by the one in c.
func (m *ClientManager) Update(ctx context.Context, c domain.Client, actor string) (domain.Client, error) {
	if err := domain.RequireArg("clientID", c.ClientID); err != nil {
		return domain.Client{}, err
	}
	if err := requireActor(actor); err != nil {
		return domain.Client{}, err
	}

	c.ClientSecrets = hashSecrets(c.ClientSecrets)

	updated, err := call(ctx, kindClients, opUpdate, func() (out domain.Client, err error) {
		err = m.Store.WithTx(ctx, func(tx store.Tx) error {
			existing, err := tx.Clients().GetClientByClientID(ctx, c.ClientID)
			if err != nil {
				return notFound(err, kindClients, c.ClientID)
			}
			c.ID = existing.ID

			if err := tx.Clients().UpdateClient(ctx, c); err != nil {
				return err
			}
			if err := tx.Clients().ReplaceClientChildren(ctx, c); err != nil {
				return err
			}
			out, err = tx.Clients().GetClientByClientID(ctx, c.ClientID)
			return err
		})
		return out, err
	})
	if err != nil {
		return domain.Client{}, err
	}

	audit(ctx, kindClients, opUpdate, c.ClientID, actor)
	return updated, nil
}

// Delete removes the client; a missing client is not an error.
func (m *ClientManager) Delete(ctx context.Context, clientID, actor string) error {
	if err := domain.RequireArg("clientID", clientID); err != nil {
		return err
	}
	if err := requireActor(actor); err != nil {
		return err
	}

	var deleted bool
	err := exec(ctx, kindClients, opDelete, func() error {
		return m.Store.WithTx(ctx, func(tx store.Tx) error {
			c, ok, err := find(tx.Clients().GetClientByClientID(ctx, clientID))
			if err != nil || !ok {
				return err
			}
			deleted = true
			return tx.Clients().DeleteClient(ctx, c.ID)
		})
	})
	if err != nil {
		return err
	}

	if !deleted {
		slogx.FromContext(ctx).Debug("client already absent", "client_id", clientID)
		return nil
	}
	audit(ctx, kindClients, opDelete, clientID, actor)
	return nil
}

// GenerateSecret adds a random shared secret to the client and returns its
// plaintext. Only the digest is stored, so the plaintext cannot be read back.
func (m *ClientManager) GenerateSecret(ctx context.Context, clientID, description string, expiration *time.Time, actor string) (string, domain.Client, error) {
	if err := domain.RequireArg("clientID", clientID); err != nil {
		return "", domain.Client{}, err
	}
	if err := requireActor(actor); err != nil {
		return "", domain.Client{}, err
	}

	plaintext, err := cryptox.GenerateToken(cryptox.TokenSize256)
	if err != nil {
		return "", domain.Client{}, &domain.ManagerError{Kind: kindClients, Op: opSecret, Err: err}
	}

	c, err := m.GetByClientID(ctx, clientID)
	if err != nil {
		return "", domain.Client{}, err
	}
	c.ClientSecrets = append(c.ClientSecrets, domain.Secret{
		Value:       plaintext,
		Type:        domain.SecretTypeSharedSecret,
		Description: description,
		Expiration:  expiration,
	})

	updated, err := m.Update(ctx, c, actor)
	if err != nil {
		return "", domain.Client{}, err
	}
	return plaintext, updated, nil
}

// PurgeExpiredSecrets deletes every client secret expired at now.
func (m *ClientManager) PurgeExpiredSecrets(ctx context.Context, now time.Time) (int64, error) {
	return call(ctx, kindClients, opPurge, func() (int64, error) {
		return m.Store.Clients().DeleteExpiredSecrets(ctx, now)
	})
}

// hashSecrets returns a copy of secrets with every value hashed exactly once.
// Values already flagged IsHashed pass through untouched.
func hashSecrets(secrets []domain.Secret) []domain.Secret {
	if secrets == nil {
		return nil
	}
	out := make([]domain.Secret, len(secrets))
	for i, s := range secrets {
		s.Value, s.IsHashed = cryptox.EnsureHashed(s.Value, s.IsHashed)
		if s.Type == "" {
			s.Type = domain.SecretTypeSharedSecret
		}
		out[i] = s
	}
	return out
}
