// Package artifactstest provides compiled-artifact fixtures for tests.
package artifactstest

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/atonomi/atonomi-deploy/internal/artifacts"
)

// StubCreationCode deploys a contract whose runtime code is a single STOP, so
// any call against it succeeds.
const StubCreationCode = "0x6001600c60003960016000f300"

// SafeMathPlaceholder is the legacy link placeholder for SafeMathLib.
const SafeMathPlaceholder = "__SafeMathLib___________________________"

const (
	proxyABI = `[
		{"type":"constructor","inputs":[],"stateMutability":"nonpayable"},
		{"type":"function","name":"upgradeTo","inputs":[{"name":"implementation","type":"address"}],"outputs":[],"stateMutability":"nonpayable"},
		{"type":"function","name":"upgradeToAndCall","inputs":[{"name":"implementation","type":"address"},{"name":"data","type":"bytes"}],"outputs":[],"stateMutability":"payable"},
		{"type":"function","name":"implementation","inputs":[],"outputs":[{"name":"","type":"address"}],"stateMutability":"view"},
		{"type":"function","name":"proxyOwner","inputs":[],"outputs":[{"name":"","type":"address"}],"stateMutability":"view"}
	]`
	safeMathABI = `[
		{"type":"function","name":"times","inputs":[{"name":"a","type":"uint256"},{"name":"b","type":"uint256"}],"outputs":[{"name":"","type":"uint256"}],"stateMutability":"pure"}
	]`
	tokenABI = `[
		{"type":"constructor","inputs":[{"name":"_name","type":"string"},{"name":"_symbol","type":"string"},{"name":"_initialSupply","type":"uint256"},{"name":"_decimals","type":"uint8"},{"name":"_mintable","type":"bool"}],"stateMutability":"nonpayable"}
	]`
	storageABI  = `[{"type":"constructor","inputs":[],"stateMutability":"nonpayable"}]`
	settingsABI = `[
		{"type":"constructor","inputs":[{"name":"_storage","type":"address"},{"name":"_regFee","type":"uint256"},{"name":"_actFee","type":"uint256"},{"name":"_repReward","type":"uint256"},{"name":"_reputationShare","type":"uint256"},{"name":"_blockThreshold","type":"uint256"}],"stateMutability":"nonpayable"}
	]`
	atonomiABI = `[
		{"type":"constructor","inputs":[{"name":"_storage","type":"address"},{"name":"_token","type":"address"},{"name":"_settings","type":"address"}],"stateMutability":"nonpayable"}
	]`
)

// File is the on-disk shape of one Truffle artifact.
type File struct {
	ContractName string          `json:"contractName"`
	ABI          json.RawMessage `json:"abi"`
	Bytecode     string          `json:"bytecode"`
	SourcePath   string          `json:"sourcePath"`
}

// Files returns the Atonomi contract set keyed by contract name. AMLToken
// carries an unlinked SafeMathLib reference in its trailing data.
func Files() map[artifacts.ContractName]File {
	return map[artifacts.ContractName]File{
		artifacts.ContractNameProxy:       {string(artifacts.ContractNameProxy), json.RawMessage(proxyABI), StubCreationCode, "contracts/AtonomiOwnedUpgradabilityProxy.sol"},
		artifacts.ContractNameSafeMathLib: {string(artifacts.ContractNameSafeMathLib), json.RawMessage(safeMathABI), StubCreationCode, "contracts/SafeMathLib.sol"},
		artifacts.ContractNameToken:       {string(artifacts.ContractNameToken), json.RawMessage(tokenABI), StubCreationCode + SafeMathPlaceholder, "contracts/AMLToken.sol"},
		artifacts.ContractNameStorage:     {string(artifacts.ContractNameStorage), json.RawMessage(storageABI), StubCreationCode, "contracts/AtonomiEternalStorage.sol"},
		artifacts.ContractNameSettings:    {string(artifacts.ContractNameSettings), json.RawMessage(settingsABI), StubCreationCode, "contracts/Settings.sol"},
		artifacts.ContractNameAtonomi:     {string(artifacts.ContractNameAtonomi), json.RawMessage(atonomiABI), StubCreationCode, "contracts/Atonomi.sol"},
	}
}

// WriteDir writes the fixtures as a Truffle build directory and returns it.
func WriteDir(t *testing.T) string {
	t.Helper()

	dir := t.TempDir()
	for name, file := range Files() {
		data, err := json.MarshalIndent(file, "", "  ")
		if err != nil {
			t.Fatalf("marshal %s: %v", name, err)
		}
		if err := os.WriteFile(filepath.Join(dir, string(name)+".json"), data, 0644); err != nil {
			t.Fatalf("write %s: %v", name, err)
		}
	}
	return dir
}

// Registry loads the fixtures through artifacts.LoadDir.
func Registry(t *testing.T) *artifacts.Registry {
	t.Helper()

	registry, err := artifacts.LoadDir(WriteDir(t))
	if err != nil {
		t.Fatalf("load fixtures: %v", err)
	}
	return registry
}
