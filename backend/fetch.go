package backend

import (
	"errors"
	"fmt"

	"github.com/gagliardetto/solana-go"
	"github.com/gagliardetto/solana-go/rpc"
	"github.com/solsniper/executor/retry"
	"github.com/solsniper/executor/spltoken"
)

type Account struct {
	PubKey  solana.PublicKey
	Account *rpc.Account
	Height  uint64
}

// MemFilter matches raw account bytes at a fixed offset.
type MemFilter struct {
	Offset uint64
	Bytes  []byte
}

// classifyFetch keeps retrying network trouble but gives up at once on a
// definitive "account does not exist" answer.
func classifyFetch(err error) retry.Verdict {
	if errors.Is(err, rpc.ErrNotFound) {
		return retry.Terminal
	}
	return retry.Retryable
}

func (backend *Backend) Account(pubkey solana.PublicKey) (*Account, error) {
	var account *Account
	err := backend.fetchPolicy.Do(backend.ctx, func() error {
		response, err := backend.rpcClient.GetAccountInfoWithOpts(backend.ctx, pubkey,
			&rpc.GetAccountInfoOpts{
				Encoding:   solana.EncodingBase64,
				Commitment: rpc.CommitmentConfirmed,
			})
		if err != nil {
			return err
		}
		account = &Account{
			PubKey:  pubkey,
			Height:  response.Context.Slot,
			Account: response.Value,
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return account, nil
}

// HasAccount probes account existence. A clean "not found" is not an error.
func (backend *Backend) HasAccount(pubkey solana.PublicKey) (bool, error) {
	_, err := backend.Account(pubkey)
	if err == nil {
		return true, nil
	}
	if errors.Is(err, rpc.ErrNotFound) {
		return false, nil
	}
	return false, err
}

func (backend *Backend) ProgramAccounts(program solana.PublicKey, dataSize uint64, memFilters []MemFilter) ([]*Account, error) {
	filters := make([]rpc.RPCFilter, 0, len(memFilters)+1)
	if dataSize > 0 {
		filters = append(filters, rpc.RPCFilter{DataSize: dataSize})
	}
	for _, mf := range memFilters {
		filters = append(filters, rpc.RPCFilter{
			Memcmp: &rpc.RPCFilterMemcmp{
				Offset: mf.Offset,
				Bytes:  solana.Base58(mf.Bytes),
			},
		})
	}
	var accounts []*Account
	err := backend.fetchPolicy.Do(backend.ctx, func() error {
		result, err := backend.rpcClient.GetProgramAccountsWithOpts(backend.ctx, program,
			&rpc.GetProgramAccountsOpts{
				Encoding: solana.EncodingBase64,
				Filters:  filters,
			})
		if err != nil {
			return err
		}
		accounts = accounts[:0]
		for _, account := range result {
			accounts = append(accounts, &Account{
				PubKey:  account.Pubkey,
				Account: account.Account,
			})
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return accounts, nil
}

// KeyedAccountData pairs an account key with its raw bytes.
type KeyedAccountData struct {
	PubKey solana.PublicKey
	Data   []byte
	Height uint64
}

// AccountData returns the raw bytes of an account.
func (backend *Backend) AccountData(pubkey solana.PublicKey) ([]byte, uint64, error) {
	account, err := backend.Account(pubkey)
	if err != nil {
		return nil, 0, err
	}
	if account.Account == nil || account.Account.Data == nil {
		return nil, 0, fmt.Errorf("account(%s) has no data", pubkey)
	}
	return account.Account.Data.GetBinary(), account.Height, nil
}

// ProgramAccountsData scans program accounts and returns their raw bytes.
func (backend *Backend) ProgramAccountsData(program solana.PublicKey, dataSize uint64, memFilters []MemFilter) ([]*KeyedAccountData, error) {
	accounts, err := backend.ProgramAccounts(program, dataSize, memFilters)
	if err != nil {
		return nil, err
	}
	keyed := make([]*KeyedAccountData, 0, len(accounts))
	for _, account := range accounts {
		if account.Account == nil || account.Account.Data == nil {
			continue
		}
		keyed = append(keyed, &KeyedAccountData{
			PubKey: account.PubKey,
			Data:   account.Account.Data.GetBinary(),
			Height: account.Height,
		})
	}
	return keyed, nil
}

func (backend *Backend) Balance(pubkey solana.PublicKey) (uint64, error) {
	response, err := backend.rpcClient.GetBalance(backend.ctx, pubkey, rpc.CommitmentConfirmed)
	if err != nil {
		return 0, err
	}
	return response.Value, nil
}

// TokenBalance returns the raw amount held by a token account. A missing
// account reads as zero.
func (backend *Backend) TokenBalance(account solana.PublicKey) (uint64, error) {
	data, height, err := backend.AccountData(account)
	if err != nil {
		if errors.Is(err, rpc.ErrNotFound) {
			return 0, nil
		}
		return 0, err
	}
	token, err := spltoken.ParseTokenAccount(account, height, data)
	if err != nil {
		return 0, err
	}
	return token.Amount, nil
}
