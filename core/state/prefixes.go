package state

var (
	accountPrefix     = []byte("account/")
	lendPoolKeyBytes  = []byte("lendpool/pool")
	loanPrefix        = []byte("lendpool/loan/")
	orderBookKeyBytes = []byte("darkpool/book")
	proofPrefix       = []byte("darkpool/proof/")
	orderPrefix       = []byte("darkpool/order/")
	auctionPrefix     = []byte("auction/record/")
	bidPrefix         = []byte("auction/bid/")
)
