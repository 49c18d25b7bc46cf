package redis

// createIfAbsentScript writes a hash only when the key is new.
//
// KEYS[1] record key
// ARGV[1] absolute expiry in unix seconds, 0 for none
// ARGV[2..] field/value pairs
//
// Returns 1 when created, 0 when the key already existed.
const createIfAbsentScript = `
if redis.call("EXISTS", KEYS[1]) == 1 then
  return 0
end
redis.call("HSET", KEYS[1], unpack(ARGV, 2))
local expireAt = tonumber(ARGV[1])
if expireAt > 0 then
  redis.call("EXPIREAT", KEYS[1], expireAt)
end
return 1
`

// consumeInviteScript is the consume-once transition.
//
// KEYS[1] invite key
// ARGV[1] now in unix seconds
//
// Returns 1 on success, -1 missing, -2 already used, -3 expired.
const consumeInviteScript = `
if redis.call("EXISTS", KEYS[1]) == 0 then
  return -1
end
if redis.call("HGET", KEYS[1], "used") == "1" then
  return -2
end
local now = tonumber(ARGV[1])
if tonumber(redis.call("HGET", KEYS[1], "expires_at")) <= now then
  return -3
end
redis.call("HSET", KEYS[1], "used", "1", "used_at", ARGV[1])
return 1
`

// setMeetingIfAbsentScript binds a meeting id to a room, first writer wins.
//
// KEYS[1] room key
// ARGV[1] candidate meeting id
//
// Returns the stored meeting id, or nil when the room does not exist.
const setMeetingIfAbsentScript = `
if redis.call("EXISTS", KEYS[1]) == 0 then
  return false
end
redis.call("HSETNX", KEYS[1], "meeting_id", ARGV[1])
return redis.call("HGET", KEYS[1], "meeting_id")
`
