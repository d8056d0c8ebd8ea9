package wallet

import (
	"fmt"

	"github.com/google/uuid"
	"github.com/tundrawallet/tundra/internal/common"
)

// Contact is one address-book entry. Addresses maps a protocol tag
// ("principal", "account") to the address string. Dynamic contacts mirror
// the user's own wallets: they are re-derived on every load and never
// persisted.
type Contact struct {
	ID        string            `json:"id"`
	Name      string            `json:"name"`
	Addresses map[string]string `json:"addresses"`
	Dynamic   bool              `json:"-"`
}

// Book is the address book: user-entered contacts plus the dynamic mirrors
// of the user's own wallets.
type Book struct {
	Contacts []Contact `json:"contacts"`
}

// Add inserts a contact, assigning a fresh id when the caller did not bring
// one. Re-adding an existing id signals common.ErrDuplicate.
func (b *Book) Add(c Contact) (Contact, error) {
	if c.ID == "" {
		c.ID = uuid.NewString()
	}
	for _, existing := range b.Contacts {
		if existing.ID == c.ID {
			return Contact{}, fmt.Errorf("%w: contact %s", common.ErrDuplicate, c.ID)
		}
	}
	b.Contacts = append(b.Contacts, c)
	return c, nil
}

// Remove deletes a contact by id. Dynamic contacts cannot be removed; they
// disappear with their wallet.
func (b *Book) Remove(id string) error {
	for i, c := range b.Contacts {
		if c.ID != id {
			continue
		}
		if c.Dynamic {
			return fmt.Errorf("%w: contact %s mirrors a wallet", common.ErrNotFound, id)
		}
		b.Contacts = append(b.Contacts[:i], b.Contacts[i+1:]...)
		return nil
	}
	return fmt.Errorf("%w: contact %s", common.ErrNotFound, id)
}

// Find looks up a contact by id.
func (b *Book) Find(id string) (Contact, bool) {
	for _, c := range b.Contacts {
		if c.ID == id {
			return c, true
		}
	}
	return Contact{}, false
}

// Addresses flattens every contact's address set into one list.
func (b *Book) Addresses() []string {
	var out []string
	for _, c := range b.Contacts {
		for _, addr := range c.Addresses {
			out = append(out, addr)
		}
	}
	return out
}

// persistable returns a copy of the book with the dynamic contacts stripped.
func (b *Book) persistable() Book {
	kept := make([]Contact, 0, len(b.Contacts))
	for _, c := range b.Contacts {
		if c.Dynamic {
			continue
		}
		kept = append(kept, c)
	}
	return Book{Contacts: kept}
}

// stripDynamic drops every dynamic contact, keeping user-entered ones.
func (b *Book) stripDynamic() {
	*b = b.persistable()
}
