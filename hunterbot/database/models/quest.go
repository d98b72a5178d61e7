package models

type QuestKind string

const (
	QuestKindLink       QuestKind = "link"
	QuestKindWishlist   QuestKind = "wishlist"
	QuestKindEngagement QuestKind = "engagement"
)

const (
	QuestIndexLink       = 1
	QuestIndexWishlist   = 2
	QuestIndexEngagement = 3
)

// Quest is one step of the fixed onboarding sequence. The linking quest
// gates the others; wishlist and engagement are independent of each other.
type Quest struct {
	Index int
	Name  string
	Kind  QuestKind
}

var Quests = []Quest{
	{Index: QuestIndexLink, Name: "Steam Account Linking", Kind: QuestKindLink},
	{Index: QuestIndexWishlist, Name: "Wishlist Verification", Kind: QuestKindWishlist},
	{Index: QuestIndexEngagement, Name: "Community Like", Kind: QuestKindEngagement},
}

func QuestCount() int {
	return len(Quests)
}

func QuestByIndex(index int) (Quest, bool) {
	for _, q := range Quests {
		if q.Index == index {
			return q, true
		}
	}
	return Quest{}, false
}
