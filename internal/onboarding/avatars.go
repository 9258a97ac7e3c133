package onboarding

// DefaultAvatars is the set of avatars offered on the profile step
var DefaultAvatars = []string{
	"https://api.dicebear.com/7.x/avataaars/svg?seed=Felix&backgroundColor=b6e3f4",
	"https://api.dicebear.com/7.x/avataaars/svg?seed=Luna&backgroundColor=ffdfbf",
	"https://api.dicebear.com/7.x/avataaars/svg?seed=Max&backgroundColor=c0aede",
	"https://api.dicebear.com/7.x/avataaars/svg?seed=Bella&backgroundColor=d1d4f9",
	"https://api.dicebear.com/7.x/avataaars/svg?seed=Charlie&backgroundColor=ffd5dc",
	"https://api.dicebear.com/7.x/avataaars/svg?seed=Lucy&backgroundColor=ffdfbf",
}
