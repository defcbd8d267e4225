package addressbook

import (
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/atonomi/atonomi-deploy/configs"
	"github.com/ethereum/go-ethereum/common"
)

var ErrUnknownNetwork = errors.New("network not present in address book")

type (
	// Role names a slot in a network record.
	Role string

	// Record holds the deployed contract addresses of one network. Zero
	// addresses mean "not deployed".
	Record struct {
		Token    common.Address
		Atonomi  common.Address
		Proxy    common.Address
		Settings common.Address
	}

	// Book maps a network name to its deployed contracts.
	Book map[configs.NetworkName]Record
)

const (
	RoleToken    Role = "token"
	RoleAtonomi  Role = "atonomi"
	RoleProxy    Role = "proxy"
	RoleSettings Role = "settings"
)

var roles = []Role{RoleToken, RoleAtonomi, RoleProxy, RoleSettings}

// FromConfig builds a book from the networks section of the configuration.
func FromConfig(networks map[configs.NetworkName]configs.NetworkAddresses) (Book, error) {
	book := make(Book, len(networks))
	var errs []error

	for network, entry := range networks {
		var record Record
		for _, role := range roles {
			raw := strings.TrimSpace(entryField(entry, role))
			if raw == "" {
				continue
			}
			if !common.IsHexAddress(raw) {
				errs = append(errs, fmt.Errorf("networks.%s.%s: %q is not a hex address", network, role, raw))
				continue
			}
			record.set(role, common.HexToAddress(raw))
		}
		book[network] = record
	}

	if len(errs) > 0 {
		return nil, fmt.Errorf("address book is invalid: %w", errors.Join(errs...))
	}

	return book, nil
}

// Lookup returns the record for network.
func (b Book) Lookup(network configs.NetworkName) (Record, error) {
	record, ok := b[network]
	if !ok {
		return Record{}, fmt.Errorf("%w: %s", ErrUnknownNetwork, network)
	}
	return record, nil
}

// Address returns the address stored under role for network, failing when it
// is unset.
func (b Book) Address(network configs.NetworkName, role Role) (common.Address, error) {
	record, err := b.Lookup(network)
	if err != nil {
		return common.Address{}, err
	}
	addr := record.Get(role)
	if addr == (common.Address{}) {
		return common.Address{}, fmt.Errorf("networks.%s.%s is not set", network, role)
	}
	return addr, nil
}

// Validate fails when two networks share an identical non-empty address.
func (b Book) Validate() error {
	seen := make(map[common.Address]string)
	var errs []error

	for _, network := range b.Networks() {
		record := b[network]
		for _, role := range roles {
			addr := record.Get(role)
			if addr == (common.Address{}) {
				continue
			}
			where := fmt.Sprintf("%s.%s", network, role)
			if previous, ok := seen[addr]; ok {
				previousNetwork, _, _ := strings.Cut(previous, ".")
				if previousNetwork != string(network) {
					errs = append(errs, fmt.Errorf("%s and %s share address %s", previous, where, addr.Hex()))
				}
				continue
			}
			seen[addr] = where
		}
	}

	return errors.Join(errs...)
}

// Networks returns the network names in sorted order.
func (b Book) Networks() []configs.NetworkName {
	names := make([]configs.NetworkName, 0, len(b))
	for name := range b {
		names = append(names, name)
	}
	sort.Slice(names, func(i, j int) bool { return names[i] < names[j] })
	return names
}

func (r Record) Get(role Role) common.Address {
	switch role {
	case RoleToken:
		return r.Token
	case RoleAtonomi:
		return r.Atonomi
	case RoleProxy:
		return r.Proxy
	case RoleSettings:
		return r.Settings
	}
	return common.Address{}
}

func (r *Record) set(role Role, addr common.Address) {
	switch role {
	case RoleToken:
		r.Token = addr
	case RoleAtonomi:
		r.Atonomi = addr
	case RoleProxy:
		r.Proxy = addr
	case RoleSettings:
		r.Settings = addr
	}
}

// Roles lists every slot of a record in display order.
func Roles() []Role {
	return append([]Role(nil), roles...)
}

func entryField(entry configs.NetworkAddresses, role Role) string {
	switch role {
	case RoleToken:
		return entry.Token
	case RoleAtonomi:
		return entry.Atonomi
	case RoleProxy:
		return entry.Proxy
	case RoleSettings:
		return entry.Settings
	}
	return ""
}
