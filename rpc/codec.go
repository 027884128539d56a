package rpc

import (
	"fmt"
	"strings"

	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/ethereum/go-ethereum/rlp"

	"github.com/tempoxyz/tempo-go"
)

// contractJSON covers every method the terminal touches: the TIP-20 token
// surface and the FeeManager preference surface. Method names are disjoint,
// so one ABI serves both contracts.
const contractJSON = `[
	{"type":"function","name":"name","stateMutability":"view","inputs":[],"outputs":[{"name":"","type":"string"}]},
	{"type":"function","name":"symbol","stateMutability":"view","inputs":[],"outputs":[{"name":"","type":"string"}]},
	{"type":"function","name":"decimals","stateMutability":"view","inputs":[],"outputs":[{"name":"","type":"uint8"}]},
	{"type":"function","name":"balanceOf","stateMutability":"view","inputs":[{"name":"account","type":"address"}],"outputs":[{"name":"","type":"uint256"}]},
	{"type":"function","name":"transfer","stateMutability":"nonpayable","inputs":[{"name":"to","type":"address"},{"name":"amount","type":"uint256"}],"outputs":[{"name":"","type":"bool"}]},
	{"type":"function","name":"transferWithMemo","stateMutability":"nonpayable","inputs":[{"name":"to","type":"address"},{"name":"amount","type":"uint256"},{"name":"memo","type":"bytes32"}],"outputs":[{"name":"","type":"bool"}]},
	{"type":"function","name":"getUserToken","stateMutability":"view","inputs":[{"name":"user","type":"address"}],"outputs":[{"name":"","type":"address"}]},
	{"type":"function","name":"setUserToken","stateMutability":"nonpayable","inputs":[{"name":"token","type":"address"}],"outputs":[]}
]`

var contractABI abi.ABI

func init() {
	parsed, err := abi.JSON(strings.NewReader(contractJSON))
	if err != nil {
		panic(fmt.Sprintf("rpc: invalid contract ABI: %v", err))
	}
	contractABI = parsed
}

// packMethod ABI-encodes a method call.
func packMethod(method string, args ...interface{}) ([]byte, error) {
	data, err := contractABI.Pack(method, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to encode %s call: %w", method, err)
	}
	return data, nil
}

// packCall ABI-encodes an unsigned call's calldata.
func packCall(call *tempo.UnsignedCall) ([]byte, error) {
	return packMethod(call.Method(), call.Args()...)
}

// unpackResult decodes a method's return data.
func unpackResult(method string, data []byte) ([]interface{}, error) {
	values, err := contractABI.Unpack(method, data)
	if err != nil {
		return nil, fmt.Errorf("failed to decode %s result: %w", method, err)
	}
	return values, nil
}

// bundleTxType is the Tempo typed-transaction marker for an atomic call
// bundle. The payload after the marker is the RLP encoding of the bundle
// body, with the 65-byte sender signature appended for the signed form.
const bundleTxType = 0x76

type bundleCall struct {
	To   common.Address
	Data []byte
}

type bundleBody struct {
	ChainID  uint64
	Nonce    uint64
	GasPrice []byte
	Gas      uint64
	From     common.Address
	Calls    []bundleCall
}

type signedBundle struct {
	Body bundleBody
	Sig  []byte
}

// encodeBundleBody builds the RLP bundle body from an unsigned bundle.
// Call order is preserved: it is the execution order.
func encodeBundleBody(bundle *tempo.UnsignedBundle, chainID uint64, nonce uint64, gasPrice []byte, gas uint64) (*bundleBody, error) {
	body := &bundleBody{
		ChainID:  chainID,
		Nonce:    nonce,
		GasPrice: gasPrice,
		Gas:      gas,
		From:     bundle.From,
		Calls:    make([]bundleCall, 0, len(bundle.Calls)),
	}
	for i := range bundle.Calls {
		data, err := packCall(&bundle.Calls[i])
		if err != nil {
			return nil, err
		}
		body.Calls = append(body.Calls, bundleCall{
			To:   bundle.Calls[i].Contract,
			Data: data,
		})
	}
	return body, nil
}

// bundleDigest returns the signing digest for a bundle body: the keccak256
// hash of the type marker followed by the RLP body.
func bundleDigest(body *bundleBody) (common.Hash, error) {
	encoded, err := rlp.EncodeToBytes(body)
	if err != nil {
		return common.Hash{}, fmt.Errorf("failed to encode bundle: %w", err)
	}
	return crypto.Keccak256Hash(append([]byte{bundleTxType}, encoded...)), nil
}

// encodeSignedBundle returns the raw wire form of a signed bundle and its
// transaction hash.
func encodeSignedBundle(body *bundleBody, sig []byte) ([]byte, common.Hash, error) {
	encoded, err := rlp.EncodeToBytes(&signedBundle{Body: *body, Sig: sig})
	if err != nil {
		return nil, common.Hash{}, fmt.Errorf("failed to encode signed bundle: %w", err)
	}
	raw := append([]byte{bundleTxType}, encoded...)
	return raw, crypto.Keccak256Hash(raw), nil
}
