package sale

const (
	PhasePresale = 10
	PhasePublic  = 11
)

type Phase int

func (p Phase) String() string {
	switch p {
	case PhasePresale:
		return "presale"
	case PhasePublic:
		return "public"
	}
	panic(int(p))
}

// AvatarRecord is the unit of issuance. ID is the 1-based position in the
// issuance sequence and never changes or repeats. TraitID comes from the
// randomizer, or directly from the admin replace flow.
type AvatarRecord struct {
	ID      uint64
	TraitID uint64
	Staked  bool
}
