package recon

import (
	"strconv"
	"strings"

	"github.com/minthive/nft-market/internal/models"
)

// MatchPayment finds the first candidate that settles tx: the amounts must be
// exactly equal at full decimal precision, and the transaction id must appear
// literally in the candidate's reference or note. The buyer-side UPI deep
// link embeds the id in the payment note ("NFT Purchase Transaction 482"), so
// bank alerts echo it back; fuzzy matching on anything else is not reliable.
// No match is a normal outcome; the transaction is retried next tick.
func MatchPayment(tx models.Transaction, payments []IncomingPayment) (IncomingPayment, bool) {
	id := strconv.Itoa(int(tx.ID))
	for _, p := range payments {
		if !tx.Amount.Equal(p.Amount) {
			continue
		}
		if strings.Contains(p.Ref+"\n"+p.Note, id) {
			return p, true
		}
	}
	return IncomingPayment{}, false
}
