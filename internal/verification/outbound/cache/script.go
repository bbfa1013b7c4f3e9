package cache

import "github.com/redis/go-redis/v9"

// KEYS[1] tracker, KEYS[2] record.
// ARGV: now_ms, threshold, window_ms, record_ttl_ms, record field/value pairs.
// Returns {1, count} when admitted, {0, locked_until_ms} when refused.
var saveScript = redis.NewScript(`
local now = tonumber(ARGV[1])
local threshold = tonumber(ARGV[2])
local window = tonumber(ARGV[3])

local locked = tonumber(redis.call('HGET', KEYS[1], 'locked_until') or '0')
if locked > now then
	return {0, locked}
end

local started = tonumber(redis.call('HGET', KEYS[1], 'window_started_at') or '0')
local count = tonumber(redis.call('HGET', KEYS[1], 'count') or '0')
if started == 0 or now - started >= window then
	started = now
	count = 0
	redis.call('HDEL', KEYS[1], 'locked_until')
end

if count >= threshold then
	locked = started + window
	redis.call('HSET', KEYS[1], 'locked_until', locked)
	redis.call('PEXPIRE', KEYS[1], math.max(locked - now, 1))
	return {0, locked}
end

count = count + 1
redis.call('HSET', KEYS[1], 'count', count, 'window_started_at', started)
if count >= threshold then
	redis.call('HSET', KEYS[1], 'locked_until', started + window)
end
redis.call('PEXPIRE', KEYS[1], math.max(started + window - now, 1))

redis.call('DEL', KEYS[2])
redis.call('HSET', KEYS[2], unpack(ARGV, 5))
redis.call('PEXPIRE', KEYS[2], ARGV[4])
return {1, count}
`)

// KEYS[1] record. ARGV[1] record id.
// Returns -1 when missing, -2 when replaced, otherwise the new attempt count.
var incrAttemptsScript = redis.NewScript(`
local id = redis.call('HGET', KEYS[1], 'id')
if not id then
	return -1
end
if id ~= ARGV[1] then
	return -2
end

local attempts = redis.call('HINCRBY', KEYS[1], 'attempts', 1)
local max = tonumber(redis.call('HGET', KEYS[1], 'max_attempts') or '0')
if max > 0 and attempts >= max then
	redis.call('DEL', KEYS[1])
end
return attempts
`)

// KEYS[1] record. ARGV[1] record id or empty for any.
var deleteScript = redis.NewScript(`
if ARGV[1] ~= '' and redis.call('HGET', KEYS[1], 'id') ~= ARGV[1] then
	return 0
end
return redis.call('DEL', KEYS[1])
`)
