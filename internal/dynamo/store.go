// Package dynamo keeps the parking tables in DynamoDB. Invariants are held
// by condition expressions; creating and deleting a reservation also moves
// the space's active_reservation slot in the same transaction.
package dynamo

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"

	"github.com/iAmSherifCodes/SmartParking-Serverless-be/internal/parking"
)

// API is the part of *dynamodb.Client the store uses.
type API interface {
	GetItem(ctx context.Context, in *dynamodb.GetItemInput, opts ...func(*dynamodb.Options)) (*dynamodb.GetItemOutput, error)
	PutItem(ctx context.Context, in *dynamodb.PutItemInput, opts ...func(*dynamodb.Options)) (*dynamodb.PutItemOutput, error)
	UpdateItem(ctx context.Context, in *dynamodb.UpdateItemInput, opts ...func(*dynamodb.Options)) (*dynamodb.UpdateItemOutput, error)
	DeleteItem(ctx context.Context, in *dynamodb.DeleteItemInput, opts ...func(*dynamodb.Options)) (*dynamodb.DeleteItemOutput, error)
	Query(ctx context.Context, in *dynamodb.QueryInput, opts ...func(*dynamodb.Options)) (*dynamodb.QueryOutput, error)
	Scan(ctx context.Context, in *dynamodb.ScanInput, opts ...func(*dynamodb.Options)) (*dynamodb.ScanOutput, error)
	TransactWriteItems(ctx context.Context, in *dynamodb.TransactWriteItemsInput, opts ...func(*dynamodb.Options)) (*dynamodb.TransactWriteItemsOutput, error)
}

type Tables struct {
	Spaces             string
	Payments           string
	Reservations       string
	ReservationHistory string
	// SpaceIndex is the reservations GSI keyed by space_no.
	SpaceIndex string
}

type Store struct {
	db     API
	tables Tables
}

var _ parking.Store = (*Store)(nil)

func New(db API, tables Tables) *Store {
	if tables.SpaceIndex == "" {
		tables.SpaceIndex = "SpaceNumberIndex"
	}
	return &Store{db: db, tables: tables}
}

func attrS(v string) types.AttributeValue       { return &types.AttributeValueMemberS{Value: v} }
func attrB(v bool) types.AttributeValue         { return &types.AttributeValueMemberBOOL{Value: v} }
func attrTime(t time.Time) types.AttributeValue { return attrS(t.Format(time.RFC3339Nano)) }

func key(name, v string) map[string]types.AttributeValue {
	return map[string]types.AttributeValue{name: attrS(v)}
}

// conditionFailed returns the item seen by a failed condition check, or
// ok=false when err is some other failure.
func conditionFailed(err error) (item map[string]types.AttributeValue, ok bool) {
	var ccf *types.ConditionalCheckFailedException
	if errors.As(err, &ccf) {
		return ccf.Item, true
	}
	return nil, false
}

// cancelledChecks reports, per transaction item, whether its condition
// failed. ok is false when err is not a cancelled transaction.
func cancelledChecks(err error) (failed []bool, ok bool) {
	var tce *types.TransactionCanceledException
	if !errors.As(err, &tce) {
		return nil, false
	}
	failed = make([]bool, len(tce.CancellationReasons))
	for i, r := range tce.CancellationReasons {
		failed[i] = aws.ToString(r.Code) == "ConditionalCheckFailed"
	}
	return failed, true
}

// ---------- spaces ----------

func (st *Store) GetSpace(ctx context.Context, spaceNumber string) (*parking.Space, error) {
	out, err := st.db.GetItem(ctx, &dynamodb.GetItemInput{
		TableName:      aws.String(st.tables.Spaces),
		Key:            key("space_no", spaceNumber),
		ConsistentRead: aws.Bool(true),
	})
	if err != nil {
		return nil, fmt.Errorf("get space %s: %w", spaceNumber, err)
	}
	if len(out.Item) == 0 {
		return nil, parking.ErrNotFound
	}
	var it spaceItem
	if err := attributevalue.UnmarshalMap(out.Item, &it); err != nil {
		return nil, fmt.Errorf("decode space %s: %w", spaceNumber, err)
	}
	return it.toSpace(), nil
}

func (st *Store) ListAvailable(ctx context.Context, limit int, after string) (parking.SpacePage, error) {
	var start map[string]types.AttributeValue
	if after != "" {
		start = key("space_no", after)
	}

	var page parking.SpacePage
	for {
		out, err := st.db.Scan(ctx, &dynamodb.ScanInput{
			TableName:                aws.String(st.tables.Spaces),
			FilterExpression:         aws.String("#r = :f AND #st = :avail"),
			ExpressionAttributeNames: map[string]string{"#r": "reserved", "#st": "status"},
			ExpressionAttributeValues: map[string]types.AttributeValue{
				":f":     attrB(false),
				":avail": attrS(string(parking.SpaceAvailable)),
			},
			ExclusiveStartKey: start,
			Limit:             aws.Int32(int32(limit)),
		})
		if err != nil {
			return parking.SpacePage{}, fmt.Errorf("scan spaces: %w", err)
		}
		for i, raw := range out.Items {
			var it spaceItem
			if err := attributevalue.UnmarshalMap(raw, &it); err != nil {
				return parking.SpacePage{}, fmt.Errorf("decode space: %w", err)
			}
			page.Items = append(page.Items, *it.toSpace())
			if len(page.Items) == limit {
				if i < len(out.Items)-1 || len(out.LastEvaluatedKey) > 0 {
					page.Next = it.SpaceNumber
				}
				return page, nil
			}
		}
		if len(out.LastEvaluatedKey) == 0 {
			return page, nil
		}
		start = out.LastEvaluatedKey
	}
}

func (st *Store) ReserveSpace(ctx context.Context, spaceNumber, holder string, at time.Time) error {
	_, err := st.db.UpdateItem(ctx, &dynamodb.UpdateItemInput{
		TableName: aws.String(st.tables.Spaces),
		Key:       key("space_no", spaceNumber),
		UpdateExpression: aws.String("SET #r = :t, #st = :reserved, reserved_by = :h, " +
			"reservation_date = if_not_exists(reservation_date, :at), updated_at = :at"),
		ConditionExpression: aws.String("attribute_exists(space_no) AND " +
			"((#r = :f AND (attribute_not_exists(#st) OR #st = :avail)) OR (#r = :t AND reserved_by = :h))"),
		ExpressionAttributeNames: map[string]string{"#r": "reserved", "#st": "status"},
		ExpressionAttributeValues: map[string]types.AttributeValue{
			":t":        attrB(true),
			":f":        attrB(false),
			":reserved": attrS(string(parking.SpaceReserved)),
			":avail":    attrS(string(parking.SpaceAvailable)),
			":h":        attrS(holder),
			":at":       attrTime(at),
		},
		ReturnValuesOnConditionCheckFailure: types.ReturnValuesOnConditionCheckFailureAllOld,
	})
	if item, ok := conditionFailed(err); ok {
		if len(item) == 0 {
			return parking.ErrNotFound
		}
		return parking.ErrConditionFailed
	}
	if err != nil {
		return fmt.Errorf("reserve space %s: %w", spaceNumber, err)
	}
	return nil
}

func (st *Store) ReleaseSpace(ctx context.Context, spaceNumber, holder string, at time.Time) error {
	_, err := st.db.UpdateItem(ctx, &dynamodb.UpdateItemInput{
		TableName:                aws.String(st.tables.Spaces),
		Key:                      key("space_no", spaceNumber),
		UpdateExpression:         aws.String("SET #r = :f, #st = :avail, updated_at = :at REMOVE reserved_by, reservation_date"),
		ConditionExpression:      aws.String("attribute_exists(space_no) AND #r = :t AND reserved_by = :h"),
		ExpressionAttributeNames: map[string]string{"#r": "reserved", "#st": "status"},
		ExpressionAttributeValues: map[string]types.AttributeValue{
			":t":     attrB(true),
			":f":     attrB(false),
			":avail": attrS(string(parking.SpaceAvailable)),
			":h":     attrS(holder),
			":at":    attrTime(at),
		},
		ReturnValuesOnConditionCheckFailure: types.ReturnValuesOnConditionCheckFailureAllOld,
	})
	if item, ok := conditionFailed(err); ok {
		if len(item) == 0 {
			return parking.ErrNotFound
		}
		var it spaceItem
		if err := attributevalue.UnmarshalMap(item, &it); err != nil {
			return fmt.Errorf("decode space %s: %w", spaceNumber, err)
		}
		if !it.Reserved {
			return nil
		}
		return parking.ErrConditionFailed
	}
	if err != nil {
		return fmt.Errorf("release space %s: %w", spaceNumber, err)
	}
	return nil
}

// ---------- payments ----------

func (st *Store) CreatePayment(ctx context.Context, p *parking.Payment) error {
	return st.putNew(ctx, st.tables.Payments, paymentToItem(p))
}

func (st *Store) GetPayment(ctx context.Context, id string) (*parking.Payment, error) {
	var it paymentItem
	if err := st.get(ctx, st.tables.Payments, id, &it); err != nil {
		return nil, err
	}
	return it.toPayment(), nil
}

func (st *Store) TransitionPayment(ctx context.Context, id string, from []parking.PaymentStatus, to parking.PaymentStatus, upd parking.PaymentUpdate) (*parking.Payment, error) {
	if len(from) == 0 {
		return nil, parking.ErrConditionFailed
	}
	values := map[string]types.AttributeValue{
		":to": attrS(string(to)),
		":at": attrTime(upd.At),
	}
	sets := []string{"paymentStatus = :to", "updatedAt = :at"}
	if upd.TransactionID != "" {
		sets = append(sets, "transactionId = :tx")
		values[":tx"] = attrS(upd.TransactionID)
	}
	if upd.PaymentMethod != "" {
		sets = append(sets, "paymentMethod = :pm")
		values[":pm"] = attrS(upd.PaymentMethod)
	}
	sources := make([]string, len(from))
	for i, f := range from {
		ph := fmt.Sprintf(":from%d", i)
		sources[i] = ph
		values[ph] = attrS(string(f))
	}

	out, err := st.db.UpdateItem(ctx, &dynamodb.UpdateItemInput{
		TableName:                           aws.String(st.tables.Payments),
		Key:                                 key("id", id),
		UpdateExpression:                    aws.String("SET " + strings.Join(sets, ", ")),
		ConditionExpression:                 aws.String("attribute_exists(id) AND paymentStatus IN (" + strings.Join(sources, ", ") + ")"),
		ExpressionAttributeValues:           values,
		ReturnValues:                        types.ReturnValueAllNew,
		ReturnValuesOnConditionCheckFailure: types.ReturnValuesOnConditionCheckFailureAllOld,
	})
	if item, ok := conditionFailed(err); ok {
		if len(item) == 0 {
			return nil, parking.ErrNotFound
		}
		return nil, parking.ErrConditionFailed
	}
	if err != nil {
		return nil, fmt.Errorf("update payment %s: %w", id, err)
	}
	var it paymentItem
	if err := attributevalue.UnmarshalMap(out.Attributes, &it); err != nil {
		return nil, fmt.Errorf("decode payment %s: %w", id, err)
	}
	return it.toPayment(), nil
}

// ---------- reservations ----------

// CreateReservation puts r and claims the space's active_reservation slot
// atomically. A taken slot yields ErrConditionFailed.
func (st *Store) CreateReservation(ctx context.Context, r *parking.Reservation) error {
	av, err := attributevalue.MarshalMap(reservationToItem(r))
	if err != nil {
		return fmt.Errorf("encode reservation: %w", err)
	}
	_, err = st.db.TransactWriteItems(ctx, &dynamodb.TransactWriteItemsInput{
		TransactItems: []types.TransactWriteItem{
			{Put: &types.Put{
				TableName:           aws.String(st.tables.Reservations),
				Item:                av,
				ConditionExpression: aws.String("attribute_not_exists(id)"),
			}},
			{Update: &types.Update{
				TableName:        aws.String(st.tables.Spaces),
				Key:              key("space_no", r.SpaceNumber),
				UpdateExpression: aws.String("SET active_reservation = :rid"),
				ConditionExpression: aws.String("attribute_exists(space_no) AND " +
					"(attribute_not_exists(active_reservation) OR active_reservation = :rid)"),
				ExpressionAttributeValues: map[string]types.AttributeValue{":rid": attrS(r.ID)},
			}},
		},
	})
	if failed, ok := cancelledChecks(err); ok {
		switch {
		case len(failed) > 0 && failed[0]:
			return parking.ErrAlreadyExists
		case len(failed) > 1 && failed[1]:
			return parking.ErrConditionFailed
		}
	}
	if err != nil {
		return fmt.Errorf("create reservation %s: %w", r.ID, err)
	}
	return nil
}

func (st *Store) GetReservation(ctx context.Context, id string) (*parking.Reservation, error) {
	var it reservationItem
	if err := st.get(ctx, st.tables.Reservations, id, &it); err != nil {
		return nil, err
	}
	r := it.toReservation()
	return &r, nil
}

func (st *Store) FindActiveBySpace(ctx context.Context, spaceNumber string) (*parking.Reservation, error) {
	out, err := st.db.Query(ctx, &dynamodb.QueryInput{
		TableName:                aws.String(st.tables.Reservations),
		IndexName:                aws.String(st.tables.SpaceIndex),
		KeyConditionExpression:   aws.String("space_no = :s"),
		FilterExpression:         aws.String("#st = :active"),
		ExpressionAttributeNames: map[string]string{"#st": "status"},
		ExpressionAttributeValues: map[string]types.AttributeValue{
			":s":      attrS(spaceNumber),
			":active": attrS(string(parking.ReservationActive)),
		},
	})
	if err != nil {
		return nil, fmt.Errorf("query reservations for %s: %w", spaceNumber, err)
	}
	if len(out.Items) == 0 {
		return nil, parking.ErrNotFound
	}
	var it reservationItem
	if err := attributevalue.UnmarshalMap(out.Items[0], &it); err != nil {
		return nil, fmt.Errorf("decode reservation: %w", err)
	}
	r := it.toReservation()
	return &r, nil
}

// DeleteReservation removes the reservation and frees the space's
// active_reservation slot together.
func (st *Store) DeleteReservation(ctx context.Context, id string) error {
	r, err := st.GetReservation(ctx, id)
	if err != nil {
		return err
	}
	_, err = st.db.TransactWriteItems(ctx, &dynamodb.TransactWriteItemsInput{
		TransactItems: []types.TransactWriteItem{
			{Delete: &types.Delete{
				TableName:           aws.String(st.tables.Reservations),
				Key:                 key("id", id),
				ConditionExpression: aws.String("attribute_exists(id)"),
			}},
			{Update: &types.Update{
				TableName:                 aws.String(st.tables.Spaces),
				Key:                       key("space_no", r.SpaceNumber),
				UpdateExpression:          aws.String("REMOVE active_reservation"),
				ConditionExpression:       aws.String("active_reservation = :rid"),
				ExpressionAttributeValues: map[string]types.AttributeValue{":rid": attrS(id)},
			}},
		},
	})
	if failed, ok := cancelledChecks(err); ok {
		switch {
		case len(failed) > 0 && failed[0]:
			return parking.ErrNotFound
		case len(failed) > 1 && failed[1]:
			// rows written before the slot existed never claimed it
			return st.deleteReservationItem(ctx, id)
		}
	}
	if err != nil {
		return fmt.Errorf("delete reservation %s: %w", id, err)
	}
	return nil
}

func (st *Store) deleteReservationItem(ctx context.Context, id string) error {
	_, err := st.db.DeleteItem(ctx, &dynamodb.DeleteItemInput{
		TableName:           aws.String(st.tables.Reservations),
		Key:                 key("id", id),
		ConditionExpression: aws.String("attribute_exists(id)"),
	})
	if _, ok := conditionFailed(err); ok {
		return parking.ErrNotFound
	}
	if err != nil {
		return fmt.Errorf("delete reservation %s: %w", id, err)
	}
	return nil
}

// ---------- history ----------

func (st *Store) ArchiveReservation(ctx context.Context, h *parking.ReservationHistory) error {
	return st.putNew(ctx, st.tables.ReservationHistory, historyToItem(h))
}

func (st *Store) GetHistory(ctx context.Context, id string) (*parking.ReservationHistory, error) {
	var it historyItem
	if err := st.get(ctx, st.tables.ReservationHistory, id, &it); err != nil {
		return nil, err
	}
	return it.toHistory(), nil
}

// ---------- helpers ----------

// putNew writes item only when no item with the same id exists.
func (st *Store) putNew(ctx context.Context, table string, item any) error {
	av, err := attributevalue.MarshalMap(item)
	if err != nil {
		return fmt.Errorf("encode %s item: %w", table, err)
	}
	_, err = st.db.PutItem(ctx, &dynamodb.PutItemInput{
		TableName:           aws.String(table),
		Item:                av,
		ConditionExpression: aws.String("attribute_not_exists(id)"),
	})
	if _, ok := conditionFailed(err); ok {
		return parking.ErrAlreadyExists
	}
	if err != nil {
		return fmt.Errorf("put %s item: %w", table, err)
	}
	return nil
}

func (st *Store) get(ctx context.Context, table, id string, out any) error {
	res, err := st.db.GetItem(ctx, &dynamodb.GetItemInput{
		TableName:      aws.String(table),
		Key:            key("id", id),
		ConsistentRead: aws.Bool(true),
	})
	if err != nil {
		return fmt.Errorf("get %s %s: %w", table, id, err)
	}
	if len(res.Item) == 0 {
		return parking.ErrNotFound
	}
	if err := attributevalue.UnmarshalMap(res.Item, out); err != nil {
		return fmt.Errorf("decode %s %s: %w", table, id, err)
	}
	return nil
}
