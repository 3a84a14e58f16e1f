package coach

// Canned replies served when the remote coach cannot be reached, keyed by
// chat context. The conversation continues either way.
var fallbackReplies = map[string]string{
	ContextWorkout:    "I can't reach my training notes right now, but don't skip today! A quick bodyweight circuit of squats, push-ups and planks always counts.",
	ContextDiet:       "I'm having trouble looking that up at the moment. Until I'm back, stick to the basics: plenty of water, protein with every meal, and easy on the sugar.",
	ContextMotivation: "Even when tech fails, you don't have to! Every workout you finish is a win, keep showing up and the results will follow.",
	ContextGeneral:    "Sorry, I'm having a short break right now. Please ask me again in a bit, I'll be back on my feet soon!",
}

// FallbackReply returns the canned reply for the given chat context.
// Unknown contexts get the general one.
func FallbackReply(chatContext string) string {
	if reply, ok := fallbackReplies[chatContext]; ok {
		return reply
	}
	return fallbackReplies[ContextGeneral]
}
