package repositories

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/mystiq-app/waitlist-backend/internal/models"
	"github.com/mystiq-app/waitlist-backend/internal/ranking"
	apperrors "github.com/mystiq-app/waitlist-backend/pkg/errors"
)

// Key layout under the configured prefix:
//
//	<prefix>registrant:<email>  hash with the registrant fields
//	<prefix>code:<CODE>         referral code -> email
//	<prefix>queue               sorted set, score = -priority_score,
//	                            member = <created_ns>|<id>|<email>
//	<prefix>seq                 id counter
//
// Equal scores sort lexicographically by member, which is signup order.
// Every write goes through a Lua script so uniqueness checks and the queue
// index change atomically. Scripts only touch keys passed in KEYS; keys that
// depend on a lookup (the referrer of a code) are read first and the script
// rejects the run when the lookup went stale. On Redis Cluster the prefix
// must carry a hash tag, e.g. "{mystiq:waitlist}:", so all keys share a slot.

// staleLookup is returned by a script whose precomputed keys no longer match
const staleLookup = -3

// scriptRetries bounds reruns after a stale lookup
const scriptRetries = 3

var errStaleLookup = errors.New("referral code owner changed during write")

// KEYS: registrant, code, queue, seq, [referrer code, [referrer registrant]]
// ARGV[12] is the referrer email read before the run, '' when none
var insertScript = redis.NewScript(`
if redis.call('EXISTS', KEYS[1]) == 1 then return {-1, 0} end
if redis.call('EXISTS', KEYS[2]) == 1 then return {-2, 0} end
local credited = 0
if KEYS[5] then
	local referrer = redis.call('GET', KEYS[5]) or ''
	if referrer ~= ARGV[12] then return {-3, 0} end
	if referrer ~= '' then
		redis.call('HINCRBY', KEYS[6], 'referral_count', 1)
		local score = redis.call('HINCRBY', KEYS[6], 'priority_score', tonumber(ARGV[13]))
		redis.call('ZADD', KEYS[3], -score, redis.call('HGET', KEYS[6], 'queue_member'))
		credited = 1
	end
end
local id = redis.call('INCR', KEYS[4])
local member = ARGV[10] .. '|' .. string.format('%012d', id) .. '|' .. ARGV[1]
redis.call('HSET', KEYS[1],
	'id', id, 'email', ARGV[1], 'college_name', ARGV[2], 'age', ARGV[3], 'city', ARGV[4],
	'instagram', ARGV[5], 'teaser_answer', ARGV[6], 'referral_code', ARGV[7],
	'referred_by', ARGV[8], 'referral_count', 0, 'priority_score', ARGV[9],
	'created_at', ARGV[10], 'status', ARGV[11], 'queue_member', member)
redis.call('SET', KEYS[2], ARGV[1])
redis.call('ZADD', KEYS[3], -tonumber(ARGV[9]), member)
return {id, credited}
`)

// KEYS: code, queue, [owner registrant]; ARGV[1] is the owner read before the run
var incrementScript = redis.NewScript(`
local email = redis.call('GET', KEYS[1]) or ''
if email ~= ARGV[1] then return -3 end
if email == '' then return 0 end
redis.call('HINCRBY', KEYS[3], 'referral_count', 1)
local score = redis.call('HINCRBY', KEYS[3], 'priority_score', tonumber(ARGV[2]))
redis.call('ZADD', KEYS[2], -score, redis.call('HGET', KEYS[3], 'queue_member'))
return 1
`)

var addPriorityScript = redis.NewScript(`
if redis.call('EXISTS', KEYS[1]) == 0 then return 0 end
local score = redis.call('HINCRBY', KEYS[1], 'priority_score', tonumber(ARGV[1]))
redis.call('ZADD', KEYS[2], -score, redis.call('HGET', KEYS[1], 'queue_member'))
return 1
`)

var setStatusScript = redis.NewScript(`
if redis.call('EXISTS', KEYS[1]) == 0 then return 0 end
redis.call('HSET', KEYS[1], 'status', ARGV[1])
return 1
`)

// KEYS: registrant, queue, code; ARGV[1] is the code read before the run
var deleteScript = redis.NewScript(`
if redis.call('EXISTS', KEYS[1]) == 0 then return 0 end
local fields = redis.call('HMGET', KEYS[1], 'referral_code', 'queue_member')
if fields[1] ~= ARGV[1] then return -3 end
redis.call('DEL', KEYS[1])
redis.call('DEL', KEYS[3])
redis.call('ZREM', KEYS[2], fields[2])
return 1
`)

type redisRegistrantRepository struct {
	client *redis.Client
	prefix string
	now    func() time.Time
}

// NewRedisRegistrantRepository creates a registrant store on Redis. All keys
// are namespaced by prefix.
func NewRedisRegistrantRepository(client *redis.Client, prefix string) RegistrantRepository {
	return &redisRegistrantRepository{client: client, prefix: prefix, now: time.Now}
}

func (r *redisRegistrantRepository) registrantKey(email string) string {
	return r.prefix + "registrant:" + email
}

func (r *redisRegistrantRepository) codeKey(code string) string {
	return r.prefix + "code:" + code
}

func (r *redisRegistrantRepository) queueKey() string {
	return r.prefix + "queue"
}

func (r *redisRegistrantRepository) seqKey() string {
	return r.prefix + "seq"
}

func (r *redisRegistrantRepository) Insert(ctx context.Context, registrant *models.Registrant) (bool, error) {
	for attempt := 0; attempt < scriptRetries; attempt++ {
		credited, err := r.insertOnce(ctx, registrant)
		if errors.Is(err, errStaleLookup) {
			continue
		}
		return credited, err
	}
	return false, fmt.Errorf("insert registrant: %w", errStaleLookup)
}

func (r *redisRegistrantRepository) insertOnce(ctx context.Context, registrant *models.Registrant) (bool, error) {
	created := r.now().UTC()
	createdNanos := fmt.Sprintf("%020d", created.UnixNano())

	keys := []string{
		r.registrantKey(registrant.Email),
		r.codeKey(registrant.ReferralCode),
		r.queueKey(),
		r.seqKey(),
	}

	referrer := ""
	if registrant.ReferredBy != "" {
		var err error
		if referrer, err = r.codeOwner(ctx, registrant.ReferredBy); err != nil {
			return false, fmt.Errorf("insert registrant: %w", err)
		}
		keys = append(keys, r.codeKey(registrant.ReferredBy))
		if referrer != "" {
			keys = append(keys, r.registrantKey(referrer))
		}
	}

	res, err := insertScript.Run(ctx, r.client, keys,
		registrant.Email, registrant.CollegeName, registrant.Age, registrant.City,
		registrant.Instagram, registrant.TeaserAnswer, registrant.ReferralCode,
		registrant.ReferredBy, registrant.PriorityScore, createdNanos, registrant.Status,
		referrer, ranking.ReferralReward,
	).Int64Slice()
	if err != nil {
		return false, fmt.Errorf("insert registrant: %w", err)
	}

	switch res[0] {
	case -1:
		return false, fmt.Errorf("insert registrant: %w", apperrors.ErrDuplicateEmail)
	case -2:
		return false, fmt.Errorf("insert registrant: %w", apperrors.ErrDuplicateReferralCode)
	case staleLookup:
		return false, errStaleLookup
	}

	registrant.ID = res[0]
	registrant.CreatedAt = time.Unix(0, created.UnixNano()).UTC()
	registrant.ReferralCount = 0
	return res[1] == 1, nil
}

// codeOwner returns the email holding code, or "" when the code is unissued
func (r *redisRegistrantRepository) codeOwner(ctx context.Context, code string) (string, error) {
	email, err := r.client.Get(ctx, r.codeKey(code)).Result()
	if errors.Is(err, redis.Nil) {
		return "", nil
	}
	return email, err
}

func (r *redisRegistrantRepository) FindByEmail(ctx context.Context, email string) (*models.Registrant, error) {
	fields, err := r.client.HGetAll(ctx, r.registrantKey(email)).Result()
	if err != nil {
		return nil, fmt.Errorf("get registrant by email: %w", err)
	}
	if len(fields) == 0 {
		return nil, nil
	}
	return parseRegistrant(fields)
}

func (r *redisRegistrantRepository) FindByReferralCode(ctx context.Context, code string) (*models.Registrant, error) {
	email, err := r.codeOwner(ctx, code)
	if err != nil {
		return nil, fmt.Errorf("get registrant by referral code: %w", err)
	}
	if email == "" {
		return nil, nil
	}
	return r.FindByEmail(ctx, email)
}

func (r *redisRegistrantRepository) IncrementReferral(ctx context.Context, code string, scoreDelta int) (bool, error) {
	for attempt := 0; attempt < scriptRetries; attempt++ {
		owner, err := r.codeOwner(ctx, code)
		if err != nil {
			return false, fmt.Errorf("increment referral: %w", err)
		}
		keys := []string{r.codeKey(code), r.queueKey()}
		if owner != "" {
			keys = append(keys, r.registrantKey(owner))
		}

		n, err := incrementScript.Run(ctx, r.client, keys, owner, scoreDelta).Int()
		if err != nil {
			return false, fmt.Errorf("increment referral: %w", err)
		}
		if n != staleLookup {
			return n == 1, nil
		}
	}
	return false, fmt.Errorf("increment referral: %w", errStaleLookup)
}

func (r *redisRegistrantRepository) Count(ctx context.Context) (int, error) {
	n, err := r.client.ZCard(ctx, r.queueKey()).Result()
	if err != nil {
		return 0, fmt.Errorf("count registrants: %w", err)
	}
	return int(n), nil
}

// All returns registrants in queue order
func (r *redisRegistrantRepository) All(ctx context.Context) ([]*models.Registrant, error) {
	members, err := r.client.ZRange(ctx, r.queueKey(), 0, -1).Result()
	if err != nil {
		return nil, fmt.Errorf("query all registrants: %w", err)
	}
	if len(members) == 0 {
		return nil, nil
	}

	pipe := r.client.Pipeline()
	cmds := make([]*redis.MapStringStringCmd, 0, len(members))
	for _, member := range members {
		cmds = append(cmds, pipe.HGetAll(ctx, r.registrantKey(emailFromMember(member))))
	}
	if _, err := pipe.Exec(ctx); err != nil {
		return nil, fmt.Errorf("load registrants: %w", err)
	}

	registrants := make([]*models.Registrant, 0, len(cmds))
	for _, cmd := range cmds {
		fields := cmd.Val()
		if len(fields) == 0 {
			// deleted between ZRANGE and HGETALL
			continue
		}
		registrant, err := parseRegistrant(fields)
		if err != nil {
			return nil, err
		}
		registrants = append(registrants, registrant)
	}
	return registrants, nil
}

// Position reads the rank straight from the queue sorted set
func (r *redisRegistrantRepository) Position(ctx context.Context, email string) (int, error) {
	member, err := r.client.HGet(ctx, r.registrantKey(email), "queue_member").Result()
	if errors.Is(err, redis.Nil) {
		return 0, apperrors.Wrapf(apperrors.ErrNotFound, "registrant %s", email)
	}
	if err != nil {
		return 0, fmt.Errorf("queue position: %w", err)
	}

	rank, err := r.client.ZRank(ctx, r.queueKey(), member).Result()
	if errors.Is(err, redis.Nil) {
		return 0, apperrors.Wrapf(apperrors.ErrNotFound, "registrant %s", email)
	}
	if err != nil {
		return 0, fmt.Errorf("queue position: %w", err)
	}
	return int(rank) + 1, nil
}

func (r *redisRegistrantRepository) UpdateStatus(ctx context.Context, email, status string) (bool, error) {
	n, err := setStatusScript.Run(ctx, r.client, []string{r.registrantKey(email)}, status).Int()
	if err != nil {
		return false, fmt.Errorf("update registrant status: %w", err)
	}
	return n == 1, nil
}

func (r *redisRegistrantRepository) UpdateStatusBulk(ctx context.Context, emails []string, status string) (int, error) {
	updated := 0
	for _, email := range dedupe(emails) {
		ok, err := r.UpdateStatus(ctx, email, status)
		if err != nil {
			return updated, err
		}
		if ok {
			updated++
		}
	}
	return updated, nil
}

func (r *redisRegistrantRepository) AddPriority(ctx context.Context, emails []string, delta int) (int, error) {
	updated := 0
	for _, email := range dedupe(emails) {
		n, err := addPriorityScript.Run(ctx, r.client, []string{r.registrantKey(email), r.queueKey()}, delta).Int()
		if err != nil {
			return updated, fmt.Errorf("bulk priority boost: %w", err)
		}
		updated += n
	}
	return updated, nil
}

func (r *redisRegistrantRepository) DeleteByEmails(ctx context.Context, emails []string) (int, error) {
	deleted := 0
	for _, email := range dedupe(emails) {
		ok, err := r.deleteOne(ctx, email)
		if err != nil {
			return deleted, fmt.Errorf("bulk delete: %w", err)
		}
		if ok {
			deleted++
		}
	}
	return deleted, nil
}

func (r *redisRegistrantRepository) deleteOne(ctx context.Context, email string) (bool, error) {
	key := r.registrantKey(email)
	for attempt := 0; attempt < scriptRetries; attempt++ {
		code, err := r.client.HGet(ctx, key, "referral_code").Result()
		if errors.Is(err, redis.Nil) {
			return false, nil
		}
		if err != nil {
			return false, err
		}

		n, err := deleteScript.Run(ctx, r.client, []string{key, r.queueKey(), r.codeKey(code)}, code).Int()
		if err != nil {
			return false, err
		}
		if n != staleLookup {
			return n == 1, nil
		}
	}
	return false, errStaleLookup
}

func (r *redisRegistrantRepository) Clear(ctx context.Context) (int, error) {
	members, err := r.client.ZRange(ctx, r.queueKey(), 0, -1).Result()
	if err != nil {
		return 0, fmt.Errorf("clear registrants: %w", err)
	}
	emails := make([]string, 0, len(members))
	for _, member := range members {
		emails = append(emails, emailFromMember(member))
	}
	return r.DeleteByEmails(ctx, emails)
}

// Ping checks the Redis connection
func (r *redisRegistrantRepository) Ping(ctx context.Context) error {
	return r.client.Ping(ctx).Err()
}

func emailFromMember(member string) string {
	parts := strings.SplitN(member, "|", 3)
	if len(parts) != 3 {
		return member
	}
	return parts[2]
}

func parseRegistrant(fields map[string]string) (*models.Registrant, error) {
	id, err := strconv.ParseInt(fields["id"], 10, 64)
	if err != nil {
		return nil, fmt.Errorf("parse registrant id: %w", err)
	}
	age, err := strconv.Atoi(fields["age"])
	if err != nil {
		return nil, fmt.Errorf("parse registrant age: %w", err)
	}
	referralCount, err := strconv.Atoi(fields["referral_count"])
	if err != nil {
		return nil, fmt.Errorf("parse referral count: %w", err)
	}
	score, err := strconv.Atoi(fields["priority_score"])
	if err != nil {
		return nil, fmt.Errorf("parse priority score: %w", err)
	}
	createdNanos, err := strconv.ParseInt(fields["created_at"], 10, 64)
	if err != nil {
		return nil, fmt.Errorf("parse created_at: %w", err)
	}

	return &models.Registrant{
		ID:            id,
		Email:         fields["email"],
		CollegeName:   fields["college_name"],
		Age:           age,
		City:          fields["city"],
		Instagram:     fields["instagram"],
		TeaserAnswer:  fields["teaser_answer"],
		ReferralCode:  fields["referral_code"],
		ReferredBy:    fields["referred_by"],
		ReferralCount: referralCount,
		PriorityScore: score,
		CreatedAt:     time.Unix(0, createdNanos).UTC(),
		Status:        fields["status"],
	}, nil
}
