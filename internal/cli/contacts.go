package cli

import (
	"context"
	"fmt"
	"os"
	"sort"

	"github.com/tundrawallet/tundra/internal/wallet"
)

// AddContact adds an address-book entry. At least one address form must be
// given; both may be.
func (a *App) AddContact(ctx context.Context) error {
	if !a.isUnlocked() {
		return errLocked
	}

	name, err := GetSimpleText(a.reader, "Contact name", os.Stdout)
	if err != nil {
		return err
	}
	principal, err := GetSimpleText(a.reader, "Principal address (empty to skip)", os.Stdout)
	if err != nil {
		return err
	}
	account, err := GetSimpleText(a.reader, "Account address (empty to skip)", os.Stdout)
	if err != nil {
		return err
	}

	addresses := map[string]string{}
	if principal != "" {
		addresses["principal"] = principal
	}
	if account != "" {
		addresses["account"] = account
	}
	if len(addresses) == 0 {
		return fmt.Errorf("contact %q needs at least one address", name)
	}

	added, err := a.store.AddContact(ctx, wallet.Contact{Name: name, Addresses: addresses})
	if err != nil {
		return err
	}
	printlnFn("Contact added:", added.Name)
	return nil
}

// ListContacts prints the address book, wallet mirrors included.
func (a *App) ListContacts(ctx context.Context) error {
	if !a.isUnlocked() {
		return errLocked
	}

	contacts := a.store.Contacts()
	if len(contacts) == 0 {
		printlnFn("Address book is empty.")
		return nil
	}
	sort.Slice(contacts, func(i, j int) bool { return contacts[i].Name < contacts[j].Name })

	for _, c := range contacts {
		label := ""
		if c.Dynamic {
			label = "  (your wallet)"
		}
		printlnFn(c.Name + label)
		tags := make([]string, 0, len(c.Addresses))
		for tag := range c.Addresses {
			tags = append(tags, tag)
		}
		sort.Strings(tags)
		for _, tag := range tags {
			printlnFn(fmt.Sprintf("  %-9s %s", tag+":", c.Addresses[tag]))
		}
	}
	return nil
}
