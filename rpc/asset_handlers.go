package rpc

import (
	"github.com/gagliardetto/solana-go"

	"auctionhouse/core/state"
	"auctionhouse/native/auctionhouse"
	"auctionhouse/native/system"
)

type createMintParams struct {
	Payer     solana.PublicKey `json:"payer"`
	Mint      solana.PublicKey `json:"mint"`
	Authority solana.PublicKey `json:"authority"`
	Decimals  uint8            `json:"decimals"`
}

// createMint allocates a mint. The payer and the new mint key both sign.
func createMint(s *Server, l state.Ledger, call auctionhouse.Call, p createMintParams) (interface{}, error) {
	for _, key := range []solana.PublicKey{p.Payer, p.Mint} {
		if err := requireSigner(call, key); err != nil {
			return nil, err
		}
	}
	if err := s.assets.InitializeMint(l, p.Payer, p.Mint, p.Authority, p.Decimals); err != nil {
		return nil, err
	}
	return map[string]solana.PublicKey{"mint": p.Mint}, nil
}

type mintToParams struct {
	Mint        solana.PublicKey `json:"mint"`
	Destination solana.PublicKey `json:"destination"`
	Authority   solana.PublicKey `json:"authority"`
	Amount      uint64           `json:"amount"`
}

func mintTo(s *Server, l state.Ledger, call auctionhouse.Call, p mintToParams) (interface{}, error) {
	if err := requireSigner(call, p.Authority); err != nil {
		return nil, err
	}
	if err := s.assets.MintTo(l, p.Mint, p.Destination, p.Authority, p.Amount); err != nil {
		return nil, err
	}
	return s.assets.Account(l, p.Destination)
}

type associatedAccountParams struct {
	Payer  solana.PublicKey `json:"payer"`
	Wallet solana.PublicKey `json:"wallet"`
	Mint   solana.PublicKey `json:"mint"`
}

func createAssociatedAccount(s *Server, l state.Ledger, call auctionhouse.Call, p associatedAccountParams) (interface{}, error) {
	if err := requireSigner(call, p.Payer); err != nil {
		return nil, err
	}
	key, err := s.assets.CreateAssociatedAccount(l, p.Payer, p.Wallet, p.Mint)
	if err != nil {
		return nil, err
	}
	return map[string]solana.PublicKey{"account": key}, nil
}

type metadataParams struct {
	Payer                solana.PublicKey `json:"payer"`
	Mint                 solana.PublicKey `json:"mint"`
	UpdateAuthority      solana.PublicKey `json:"updateAuthority"`
	Name                 string           `json:"name"`
	Symbol               string           `json:"symbol"`
	URI                  string           `json:"uri"`
	SellerFeeBasisPoints uint16           `json:"sellerFeeBasisPoints"`
}

// createMetadata binds metadata to a mint. The mint authority signs.
func createMetadata(s *Server, l state.Ledger, call auctionhouse.Call, p metadataParams) (interface{}, error) {
	if err := requireSigner(call, p.Payer); err != nil {
		return nil, err
	}
	mint, err := s.assets.Mint(l, p.Mint)
	if err != nil {
		return nil, err
	}
	if err := requireSigner(call, mint.MintAuthority); err != nil {
		return nil, err
	}
	key, err := s.assets.CreateMetadata(l, p.Payer, p.Mint, p.UpdateAuthority, p.Name, p.Symbol, p.URI, p.SellerFeeBasisPoints)
	if err != nil {
		return nil, err
	}
	return map[string]solana.PublicKey{"metadata": key}, nil
}

type assetTransferParams struct {
	Source      solana.PublicKey `json:"source"`
	Destination solana.PublicKey `json:"destination"`
	Authority   solana.PublicKey `json:"authority"`
	Amount      uint64           `json:"amount"`
}

func transferAsset(s *Server, l state.Ledger, call auctionhouse.Call, p assetTransferParams) (interface{}, error) {
	if err := requireSigner(call, p.Authority); err != nil {
		return nil, err
	}
	if err := s.assets.Transfer(l, p.Source, p.Destination, p.Authority, p.Amount); err != nil {
		return nil, err
	}
	return s.assets.Account(l, p.Destination)
}

type lamportTransferParams struct {
	From     solana.PublicKey `json:"from"`
	To       solana.PublicKey `json:"to"`
	Lamports uint64           `json:"lamports"`
}

func transferLamports(_ *Server, l state.Ledger, call auctionhouse.Call, p lamportTransferParams) (interface{}, error) {
	if err := requireSigner(call, p.From); err != nil {
		return nil, err
	}
	if err := system.Transfer(l, p.From, p.To, p.Lamports); err != nil {
		return nil, err
	}
	balance, err := system.Balance(l, p.From)
	if err != nil {
		return nil, err
	}
	return map[string]uint64{"balance": balance}, nil
}
