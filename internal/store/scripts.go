package store

import "github.com/redis/go-redis/v9"

// All multi-key room mutations run as Lua scripts so they are atomic at the
// store boundary. A read-then-write across two round trips would let
// concurrent players interleave (two "fourth" title submitters both seeing
// ready, two joiners both passing the capacity check), so the check and the
// write always happen inside one script.
//
// Key order is always: 1=room hash, 2=players hash, 3=titles set, 4=gameState.
// The last ARGV is the room TTL in seconds; every script refreshes it.

// createRoomScript claims the room id, writes the lobby status, the affinity
// tag, and the owner record, and bounds every key with the TTL in one step.
// Returns 0 when the id is already occupied. A partial room (claimed hash,
// no owner, no expiry) can never exist.
var createRoomScript = redis.NewScript(`
if redis.call('EXISTS', KEYS[1]) == 1 then return 0 end
redis.call('HSET', KEYS[1], 'state', 'lobby')
redis.call('HSET', KEYS[1], 'server', ARGV[1])
redis.call('HSET', KEYS[2], ARGV[2], ARGV[3])
for i = 1, #KEYS do redis.call('EXPIRE', KEYS[i], ARGV[4]) end
return 1
`)

// addPlayerScript inserts a player record unless the room is missing or full.
// Returns 1 on success, -1 when full, -2 when the room does not exist.
// Re-adding an existing player is a no-op success (idempotent joins).
var addPlayerScript = redis.NewScript(`
if redis.call('EXISTS', KEYS[1]) == 0 then return -2 end
if redis.call('HEXISTS', KEYS[2], ARGV[1]) == 0 then
  if redis.call('HLEN', KEYS[2]) >= 4 then return -1 end
  redis.call('HSET', KEYS[2], ARGV[1], ARGV[2])
end
for i = 1, #KEYS do redis.call('EXPIRE', KEYS[i], ARGV[3]) end
return 1
`)

// submitTitleScript records a player's title into the record and the shared
// pool, then evaluates readiness in the same transaction. When the room
// becomes ready the state flips to "dealing" here, so exactly one caller in
// any interleaving gets the 1.
// Returns 1 ready, 0 not ready, -1 player unknown, -2 title already taken.
var submitTitleScript = redis.NewScript(`
if redis.call('HGET', KEYS[1], 'state') ~= 'lobby' then return 0 end
local raw = redis.call('HGET', KEYS[2], ARGV[1])
if not raw then return -1 end
local rec = cjson.decode(raw)
if rec.title ~= ARGV[2] and redis.call('SISMEMBER', KEYS[3], ARGV[2]) == 1 then
  return -2
end
if rec.title and rec.title ~= ARGV[2] then
  redis.call('SREM', KEYS[3], rec.title)
end
rec.title = ARGV[2]
redis.call('HSET', KEYS[2], ARGV[1], cjson.encode(rec))
redis.call('SADD', KEYS[3], ARGV[2])
for i = 1, #KEYS do redis.call('EXPIRE', KEYS[i], ARGV[3]) end
if redis.call('HLEN', KEYS[2]) == 4 and redis.call('SCARD', KEYS[3]) == 4 then
  redis.call('HSET', KEYS[1], 'state', 'dealing')
  return 1
end
return 0
`)

// setConnectedScript toggles the connected flag on a player record.
// Returns 0 if the player is not in the room.
var setConnectedScript = redis.NewScript(`
local raw = redis.call('HGET', KEYS[2], ARGV[1])
if not raw then return 0 end
local rec = cjson.decode(raw)
rec.connected = ARGV[2] == '1'
redis.call('HSET', KEYS[2], ARGV[1], cjson.encode(rec))
for i = 1, #KEYS do redis.call('EXPIRE', KEYS[i], ARGV[3]) end
return 1
`)

// replacePlayerScript rebinds a disconnected seat to a new identity in both
// the player registry and the game state's turn order, keeping the hand and
// submitted title. Returns 1 on success, -1 when the old player is unknown,
// -2 when the seat is still connected.
var replacePlayerScript = redis.NewScript(`
local raw = redis.call('HGET', KEYS[2], ARGV[1])
if not raw then return -1 end
local rec = cjson.decode(raw)
if rec.connected then return -2 end
rec.id = ARGV[2]
if ARGV[3] ~= '' then rec.name = ARGV[3] end
rec.connected = true
redis.call('HDEL', KEYS[2], ARGV[1])
redis.call('HSET', KEYS[2], ARGV[2], cjson.encode(rec))
local sraw = redis.call('GET', KEYS[4])
if sraw then
  local s = cjson.decode(sraw)
  for i, p in ipairs(s.players) do
    if p == ARGV[1] then s.players[i] = ARGV[2] end
  end
  redis.call('SET', KEYS[4], cjson.encode(s))
end
for i = 1, #KEYS do redis.call('EXPIRE', KEYS[i], ARGV[4]) end
return 1
`)

// removePlayerScript drops a player and their pooled title (lobby leave).
// Returns the remaining player count, or -1 when the player is unknown.
var removePlayerScript = redis.NewScript(`
local raw = redis.call('HGET', KEYS[2], ARGV[1])
if not raw then return -1 end
local rec = cjson.decode(raw)
if rec.title then redis.call('SREM', KEYS[3], rec.title) end
redis.call('HDEL', KEYS[2], ARGV[1])
return redis.call('HLEN', KEYS[2])
`)
