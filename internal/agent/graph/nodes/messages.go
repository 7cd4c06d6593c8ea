package nodes

// User-facing texts. Kept together so soft failures stay consistent across nodes.
const (
	MsgFriendsPrompt        = "Who's joining movie night? Pick up to %d friends (comma-separated)."
	MsgFriendsPlaceholder   = "e.g. alice, bob"
	MsgNoFriendsInDirectory = "You don't have any friends to invite yet. Add some friends and try again."
	MsgDatabaseUnavailable  = "Database service unavailable. Please try again in a moment."
	MsgNoFriendsSelected    = "Please select at least one friend, separated by commas."
	MsgTooManyFriends       = "You can select up to %d friends. Please choose again."
	MsgUnknownFriends       = "I couldn't find %s among your friends. Please choose from: %s."
	MsgNoSavedMovies        = "None of the selected friends have saved any movies yet. Try choosing different friends."
	MsgGenrePrompt          = "Which genre are you in the mood for?"
	MsgGenrePlaceholder     = "Or type any genre"
	MsgMoodPrompt           = "%s it is! How are you feeling tonight?"
	MsgRecommendationError  = "Error contacting recommendation engine. Sorry, I couldn't get a recommendation this time."
	MsgEnjoy                = "Enjoy your movie night!"
	MsgDidNotUnderstand     = "I didn't understand that. Send \"reset\" to plan a new movie night."
)
