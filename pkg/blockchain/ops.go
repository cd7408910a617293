package blockchain

// Operation labels attached to recorded transactions and metrics
const (
	OpDeploy         = "deploy"
	OpGrantMintRole  = "grant_mint_role"
	OpMint           = "mint"
	OpApprove        = "approve"
	OpClearFund      = "clear_fund"
	OpFund           = "fund"
	OpTransferFrom   = "transfer_from"
	OpTransferNative = "transfer_native"
)
