package server

// Outbound event envelopes. Every message carries a Type discriminator so
// clients can switch without peeking at optional fields.

type joinResponse struct {
	Ver        int           `json:"ver"`
	ID         string        `json:"id"`
	Self       Player        `json:"self"`
	Players    []Player      `json:"players"`
	Objects    []WorldObject `json:"objects"`
	ServerTime int64         `json:"serverTime"`
}

type playerInitEvent struct {
	Type       string        `json:"type"`
	Self       Player        `json:"self"`
	Players    []Player      `json:"players"`
	Objects    []WorldObject `json:"objects"`
	ServerTime int64         `json:"serverTime"`
}

type playerJoinedEvent struct {
	Type   string `json:"type"`
	Player Player `json:"player"`
}

type playerLeftEvent struct {
	Type   string `json:"type"`
	ID     string `json:"id"`
	Reason string `json:"reason"`
}

type worldSyncEvent struct {
	Type       string        `json:"type"`
	Objects    []WorldObject `json:"objects"`
	ServerTime int64         `json:"serverTime"`
}

type gameStateEvent struct {
	Type          string        `json:"type"`
	Self          Player        `json:"self"`
	NearbyPlayers []Player      `json:"nearbyPlayers"`
	NearbyObjects []WorldObject `json:"nearbyObjects"`
}

type collectionResultEvent struct {
	Type           string  `json:"type"`
	Success        bool    `json:"success"`
	Reason         string  `json:"reason,omitempty"`
	ObjectID       uint64  `json:"objectId"`
	Points         int     `json:"points,omitempty"`
	By             string  `json:"by,omitempty"`
	WinnerDistance float64 `json:"winnerDistance,omitempty"`
	ActorDistance  float64 `json:"actorDistance,omitempty"`
	Competitors    int     `json:"competitors"`
}

type resourceCollectedEvent struct {
	Type        string     `json:"type"`
	ObjectID    uint64     `json:"objectId"`
	ObjectType  ObjectType `json:"objectType"`
	By          string     `json:"by"`
	Points      int        `json:"points"`
	Competitors int        `json:"competitors"`
}

type resourceStolenEvent struct {
	Type           string     `json:"type"`
	ObjectID       uint64     `json:"objectId"`
	ObjectType     ObjectType `json:"objectType"`
	By             string     `json:"by"`
	From           string     `json:"from"`
	Points         int        `json:"points"`
	WinnerDistance float64    `json:"winnerDistance"`
	ActorDistance  float64    `json:"actorDistance"`
	Competitors    int        `json:"competitors"`
}

type playerDeathEvent struct {
	Type        string `json:"type"`
	ID          string `json:"id"`
	Cause       string `json:"cause"`
	Score       int    `json:"score"`
	Deaths      int    `json:"deaths"`
	RespawnInMs int    `json:"respawnInMs"`
}

type playerRespawnEvent struct {
	Type   string `json:"type"`
	Player Player `json:"player"`
}

type proximityBattleStartEvent struct {
	Type         string   `json:"type"`
	Signature    string   `json:"signature"`
	Participants []string `json:"participants"`
	VictimID     string   `json:"victimId"`
	DeadlineMs   int64    `json:"deadlineMs"`
}

type proximityBattleEndEvent struct {
	Type      string `json:"type"`
	Signature string `json:"signature"`
	Reason    string `json:"reason"`
}

type proximityKillEvent struct {
	Type       string   `json:"type"`
	Signature  string   `json:"signature"`
	VictimID   string   `json:"victimId"`
	Killers    []string `json:"killers"`
	ScoreBonus int      `json:"scoreBonus"`
}

type radiationWarningEvent struct {
	Type      string  `json:"type"`
	Level     float64 `json:"level"`
	Threshold float64 `json:"threshold"`
}

type speedBoostEndedEvent struct {
	Type            string  `json:"type"`
	SpeedMultiplier float64 `json:"speedMultiplier"`
}

type leaderboardEntry struct {
	Rank   int    `json:"rank"`
	ID     string `json:"id"`
	Score  int    `json:"score"`
	Kills  int    `json:"kills"`
	Deaths int    `json:"deaths"`
	Stolen int    `json:"stolen"`
}

type leaderboardTotals struct {
	ActiveBattles   int `json:"activeBattles"`
	BattlesResolved int `json:"battlesResolved"`
	Kills           int `json:"kills"`
	Deaths          int `json:"deaths"`
}

type leaderboardUpdateEvent struct {
	Type       string             `json:"type"`
	Entries    []leaderboardEntry `json:"entries"`
	Totals     leaderboardTotals  `json:"totals"`
	ServerTime int64              `json:"serverTime"`
}

type chatMessageEvent struct {
	Type    string `json:"type"`
	ID      string `json:"id"`
	Message string `json:"message"`
	SentAt  int64  `json:"sentAt"`
}

type heartbeatAckEvent struct {
	Type       string `json:"type"`
	ServerTime int64  `json:"serverTime"`
	ClientTime int64  `json:"clientTime"`
}

// invalidMessageEvent is the diagnostic delivered only to the offending
// connection when an inbound payload is dropped.
type invalidMessageEvent struct {
	Type   string `json:"type"`
	Reason string `json:"reason"`
}

type statusResponse struct {
	Status     string `json:"status"`
	Players    int    `json:"players"`
	Objects    int    `json:"objects"`
	ServerTime int64  `json:"serverTime"`
}

// Inbound client messages.

type clientEnvelope struct {
	Type string `json:"type"`
}

// updateCommand uses pointers so absent fields keep the previous value
// instead of collapsing to zero.
type updateCommand struct {
	Type           string   `json:"type"`
	Position       *Vec3    `json:"position,omitempty"`
	RotationX      *float64 `json:"rotationX,omitempty"`
	RotationY      *float64 `json:"rotationY,omitempty"`
	RadiationLevel *float64 `json:"radiationLevel,omitempty"`
}

type collectCommand struct {
	Type     string `json:"type"`
	ObjectID uint64 `json:"objectId"`
}

type chatCommand struct {
	Type    string `json:"type"`
	Message string `json:"message"`
}

type heartbeatCommand struct {
	Type   string `json:"type"`
	SentAt int64  `json:"sentAt"`
}
