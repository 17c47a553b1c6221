package sqlinline

// QInsertDownloadEvent records a provenance download. properties carries the
// checksum, tier and watermark outcome.
const QInsertDownloadEvent = `--sql 80527e5b-79da-4eaa-a78b-7f608742d29f
insert into usage_events(id, user_id, request_id, event_type, success, latency_ms, created_at, properties)
values ($1::uuid, $2::uuid, nullif($3::text, '')::uuid, 'DOWNLOAD', $4::boolean, $5::int, now(), coalesce($6::jsonb, '{}'::jsonb));
`
