package auctionhouse

import (
	"github.com/gagliardetto/solana-go"

	"auctionhouse/core/state"
	nativecommon "auctionhouse/native/common"
	"auctionhouse/native/system"
)

// DepositParams moves Amount of the payment asset into the wallet's escrow.
// PaymentAccount is the wallet itself for native instances and a holding
// account of the treasury mint, debited with TransferAuthority, otherwise.
type DepositParams struct {
	AuctionHouse      solana.PublicKey
	Wallet            solana.PublicKey
	PaymentAccount    solana.PublicKey
	TransferAuthority solana.PublicKey
	EscrowBump        uint8
	Amount            uint64
}

// WithdrawParams moves Amount out of the wallet's escrow to ReceiptAccount.
type WithdrawParams struct {
	AuctionHouse   solana.PublicKey
	Wallet         solana.PublicKey
	ReceiptAccount solana.PublicKey
	EscrowBump     uint8
	Amount         uint64
}

// OperatorWithdrawParams drains Amount from the fee account or the treasury
// to the matching withdrawal destination of the instance.
type OperatorWithdrawParams struct {
	AuctionHouse solana.PublicKey
	Amount       uint64
}

// ensureEscrow returns the wallet's escrow address, allocating it when
// absent. A native escrow is topped up to the rent-exempt floor; a custom
// escrow is a holding account of the treasury mint owned by the instance.
func (e *Engine) ensureEscrow(l state.Ledger, inst *instance, wallet, payer solana.PublicKey, bump uint8) (solana.PublicKey, error) {
	addr, err := checkBump(bump, func() (solana.PublicKey, uint8, error) {
		return FindEscrowAddress(inst.key, wallet)
	})
	if err != nil {
		return solana.PublicKey{}, err
	}
	if inst.isNative() {
		return addr, system.EnsureRentExempt(l, payer, addr, 0)
	}
	exists, err := e.assets.Exists(l, addr)
	if err != nil {
		return solana.PublicKey{}, err
	}
	if !exists {
		if err := e.assets.InitializeAccount(l, payer, addr, inst.ah.TreasuryMint, inst.key); err != nil {
			return solana.PublicKey{}, err
		}
	}
	return addr, nil
}

// escrowBalance returns what the escrow can spend before touching its rent
// floor, and the floor itself.
func (e *Engine) escrowBalance(l state.Ledger, inst *instance, escrow solana.PublicKey) (uint64, uint64, error) {
	if inst.isNative() {
		lamports, err := system.Balance(l, escrow)
		return lamports, l.Rent().MinimumBalance(0), err
	}
	holding, err := e.holding(l, escrow)
	if err != nil {
		return 0, 0, err
	}
	return holding.Amount, 0, nil
}

// fundEscrow moves amount from the payment account into escrow.
func (e *Engine) fundEscrow(l state.Ledger, inst *instance, call Call, wallet, payment, transferAuthority, escrow solana.PublicKey, amount uint64) error {
	if amount == 0 {
		return nil
	}
	if inst.isNative() {
		if !payment.Equals(wallet) {
			return fail(ErrPublicKeyMismatch, "payment account %s is not the wallet", payment)
		}
		return system.Transfer(l, wallet, escrow, amount)
	}
	if !call.Signed(transferAuthority) {
		return fail(ErrNoValidSignerPresent, "transfer authority %s did not sign", transferAuthority)
	}
	return e.assets.Transfer(l, payment, escrow, transferAuthority, amount)
}

// topUp funds escrow so it covers price above its rent floor, moving only the
// shortfall. It returns the amount moved.
func (e *Engine) topUp(l state.Ledger, inst *instance, call Call, wallet, payment, transferAuthority, escrow solana.PublicKey, price uint64) (uint64, error) {
	balance, floor, err := e.escrowBalance(l, inst, escrow)
	if err != nil {
		return 0, err
	}
	needed, err := nativecommon.CheckedAdd(price, floor)
	if err != nil {
		return 0, fail(ErrNumericalOverflow, "price %d with floor %d", price, floor)
	}
	if balance >= needed {
		return 0, nil
	}
	diff := needed - balance
	if err := e.fundEscrow(l, inst, call, wallet, payment, transferAuthority, escrow, diff); err != nil {
		return 0, err
	}
	return diff, nil
}

// Deposit credits the wallet's escrow. The wallet must sign; a delegated
// instance also accepts the deposit directly from the wallet.
func (e *Engine) Deposit(l state.Ledger, call Call, p DepositParams) (*Result, error) {
	inst, err := e.open(l, p.AuctionHouse, call, true)
	if err != nil {
		return nil, err
	}
	if !call.Signed(p.Wallet) {
		return nil, fail(ErrNoValidSignerPresent, "wallet %s did not sign", p.Wallet)
	}
	payer, err := feePayer(inst, call, p.Wallet)
	if err != nil {
		return nil, err
	}
	escrow, err := e.ensureEscrow(l, inst, p.Wallet, payer, p.EscrowBump)
	if err != nil {
		return nil, err
	}
	if err := e.fundEscrow(l, inst, call, p.Wallet, p.PaymentAccount, p.TransferAuthority, escrow, p.Amount); err != nil {
		return nil, err
	}
	l.AppendEvent(newEscrowEvent(EventTypeDeposit, inst.key, p.Wallet, escrow, p.Amount))
	return &Result{AuctionHouse: inst.key, Escrow: escrow, Payer: payer, Funded: p.Amount}, nil
}

// Withdraw pays out of the wallet's escrow. The wallet or the instance
// authority must sign; without the wallet's signature the funds can only go
// back to the wallet. A native escrow never drops below its rent floor.
func (e *Engine) Withdraw(l state.Ledger, call Call, p WithdrawParams) (*Result, error) {
	inst, err := e.open(l, p.AuctionHouse, call, true)
	if err != nil {
		return nil, err
	}
	walletSigned := call.Signed(p.Wallet)
	if !walletSigned && !call.Signed(inst.ah.Authority) && inst.auth.Kind != AuthorityDelegated {
		return nil, fail(ErrNoValidSignerPresent, "withdraw needs the wallet or authority signature")
	}
	payer, err := feePayer(inst, call, p.Wallet)
	if err != nil {
		return nil, err
	}
	escrow, err := checkBump(p.EscrowBump, func() (solana.PublicKey, uint8, error) {
		return FindEscrowAddress(inst.key, p.Wallet)
	})
	if err != nil {
		return nil, err
	}

	if inst.isNative() {
		if !walletSigned && !p.ReceiptAccount.Equals(p.Wallet) {
			return nil, fail(ErrPublicKeyMismatch, "receipt %s is not the wallet", p.ReceiptAccount)
		}
		lamports, err := system.Balance(l, escrow)
		if err != nil {
			return nil, err
		}
		remaining, err := nativecommon.CheckedSub(lamports, p.Amount)
		if err != nil || !l.Rent().IsExempt(remaining, 0) {
			return nil, fail(ErrNotEnoughBalance, "escrow %s holds %d, withdraw %d", escrow, lamports, p.Amount)
		}
		if err := system.Transfer(l, escrow, p.ReceiptAccount, p.Amount); err != nil {
			return nil, err
		}
	} else {
		ata, err := e.receiptAccount(l, inst, payer, p.Wallet, p.ReceiptAccount, walletSigned)
		if err != nil {
			return nil, err
		}
		holding, err := e.holding(l, escrow)
		if err != nil {
			return nil, err
		}
		if holding.Amount < p.Amount {
			return nil, fail(ErrNotEnoughBalance, "escrow %s holds %d, withdraw %d", escrow, holding.Amount, p.Amount)
		}
		if err := e.assets.Transfer(l, escrow, ata, inst.key, p.Amount); err != nil {
			return nil, err
		}
	}
	l.AppendEvent(newEscrowEvent(EventTypeWithdraw, inst.key, p.Wallet, escrow, p.Amount))
	return &Result{AuctionHouse: inst.key, Escrow: escrow, Payer: payer}, nil
}

// receiptAccount resolves where custom-asset proceeds for wallet land. The
// wallet's associated holding account is created when it is the target;
// without the wallet's signature it is the only permitted target.
func (e *Engine) receiptAccount(l state.Ledger, inst *instance, payer, wallet, receipt solana.PublicKey, walletSigned bool) (solana.PublicKey, error) {
	ata, _, err := findAssociated(wallet, inst.ah.TreasuryMint)
	if err != nil {
		return solana.PublicKey{}, err
	}
	if !receipt.Equals(ata) {
		if !walletSigned {
			return solana.PublicKey{}, fail(ErrPublicKeyMismatch, "receipt %s is not the associated account of %s", receipt, wallet)
		}
		holding, err := e.holding(l, receipt)
		if err != nil {
			return solana.PublicKey{}, err
		}
		if !holding.Mint.Equals(inst.ah.TreasuryMint) {
			return solana.PublicKey{}, fail(ErrPublicKeyMismatch, "receipt %s holds %s", receipt, holding.Mint)
		}
		return receipt, nil
	}
	return e.assets.CreateAssociatedAccount(l, payer, wallet, inst.ah.TreasuryMint)
}

// WithdrawFromFee moves lamports out of the fee account to the fee
// withdrawal destination. The instance authority must sign.
func (e *Engine) WithdrawFromFee(l state.Ledger, call Call, p OperatorWithdrawParams) (*Result, error) {
	inst, err := e.openOperator(l, p.AuctionHouse, call)
	if err != nil {
		return nil, err
	}
	balance, err := system.Balance(l, inst.ah.FeeAccount)
	if err != nil {
		return nil, err
	}
	if balance < p.Amount {
		return nil, fail(ErrNotEnoughBalance, "fee account holds %d, withdraw %d", balance, p.Amount)
	}
	if err := system.Transfer(l, inst.ah.FeeAccount, inst.ah.FeeWithdrawalDestination, p.Amount); err != nil {
		return nil, err
	}
	l.AppendEvent(newOperatorEvent(EventTypeFeeWithdrawn, inst.key, inst.ah.FeeWithdrawalDestination, p.Amount))
	return &Result{AuctionHouse: inst.key}, nil
}

// WithdrawFromTreasury moves collected fees to the treasury withdrawal
// destination. The instance authority must sign.
func (e *Engine) WithdrawFromTreasury(l state.Ledger, call Call, p OperatorWithdrawParams) (*Result, error) {
	inst, err := e.openOperator(l, p.AuctionHouse, call)
	if err != nil {
		return nil, err
	}
	dest := inst.ah.TreasuryWithdrawalDestination
	if inst.isNative() {
		balance, err := system.Balance(l, inst.ah.Treasury)
		if err != nil {
			return nil, err
		}
		if balance < p.Amount {
			return nil, fail(ErrNotEnoughBalance, "treasury holds %d, withdraw %d", balance, p.Amount)
		}
		if err := system.Transfer(l, inst.ah.Treasury, dest, p.Amount); err != nil {
			return nil, err
		}
	} else {
		holding, err := e.holding(l, inst.ah.Treasury)
		if err != nil {
			return nil, err
		}
		if holding.Amount < p.Amount {
			return nil, fail(ErrNotEnoughBalance, "treasury holds %d, withdraw %d", holding.Amount, p.Amount)
		}
		if err := e.assets.Transfer(l, inst.ah.Treasury, dest, inst.key, p.Amount); err != nil {
			return nil, err
		}
	}
	l.AppendEvent(newOperatorEvent(EventTypeTreasuryWithdrawn, inst.key, dest, p.Amount))
	return &Result{AuctionHouse: inst.key}, nil
}

// openOperator loads the instance for an operator-only call.
func (e *Engine) openOperator(l state.Ledger, key solana.PublicKey, call Call) (*instance, error) {
	if err := e.guard(); err != nil {
		return nil, err
	}
	ah, err := LoadAuctionHouse(l, key)
	if err != nil {
		return nil, err
	}
	if !call.Signed(ah.Authority) {
		return nil, fail(ErrNoValidSignerPresent, "authority %s did not sign", ah.Authority)
	}
	return &instance{key: key, ah: ah, auth: Authority{Kind: AuthorityWallet}}, nil
}
