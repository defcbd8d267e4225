package addressbook

import (
	"strings"

	"github.com/atonomi/atonomi-deploy/configs"
	"github.com/ethereum/go-ethereum/common"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"
)

var CMD = &cobra.Command{
	Use:   "addresses [network]",
	Short: "Validate the address book and print deployed contract addresses",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		book, err := FromConfig(configs.Values.Networks)
		if err != nil {
			return err
		}
		if err := book.Validate(); err != nil {
			return err
		}

		networks := book.Networks()
		if len(args) == 1 {
			network := configs.NetworkName(args[0])
			if _, err := book.Lookup(network); err != nil {
				return err
			}
			networks = []configs.NetworkName{network}
		}

		encoder := yaml.NewEncoder(cmd.OutOrStdout())
		defer encoder.Close()
		encoder.SetIndent(2)
		return encoder.Encode(book.render(networks))
	},
}

// render builds an ordered YAML document of the selected networks with unset
// roles omitted.
func (b Book) render(networks []configs.NetworkName) *yaml.Node {
	doc := &yaml.Node{Kind: yaml.MappingNode}
	for _, network := range networks {
		record := b[network]
		entry := &yaml.Node{Kind: yaml.MappingNode}
		for _, role := range Roles() {
			addr := record.Get(role)
			if addr == (common.Address{}) {
				continue
			}
			entry.Content = append(entry.Content,
				&yaml.Node{Kind: yaml.ScalarNode, Value: string(role)},
				&yaml.Node{Kind: yaml.ScalarNode, Style: yaml.DoubleQuotedStyle, Value: strings.ToLower(addr.Hex())},
			)
		}
		doc.Content = append(doc.Content, &yaml.Node{Kind: yaml.ScalarNode, Value: string(network)}, entry)
	}
	return doc
}
